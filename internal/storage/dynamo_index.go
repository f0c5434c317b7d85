package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/pathforge/api/internal/model"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoIndex
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoIndex stores index records in a DynamoDB table with partition key "jobId"
type DynamoIndex struct {
	client DynamoAPI
	table  string
}

// NewDynamoIndex builds a client from the default AWS credential chain
func NewDynamoIndex(ctx context.Context, region, table string) (*DynamoIndex, error) {
	if table == "" {
		return nil, fmt.Errorf("dynamodb table is required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewDynamoIndexWithClient(dynamodb.NewFromConfig(awsCfg), table), nil
}

func NewDynamoIndexWithClient(client DynamoAPI, table string) *DynamoIndex {
	return &DynamoIndex{client: client, table: table}
}

func (d *DynamoIndex) Put(ctx context.Context, rec model.IndexRecord) error {
	if err := checkKey(rec.JobID); err != nil {
		return err
	}
	_, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(d.table),
		Item:                recordToItem(rec),
		ConditionExpression: aws.String("attribute_not_exists(jobId)"),
	})
	if err != nil {
		var exists *types.ConditionalCheckFailedException
		if errors.As(err, &exists) {
			return nil
		}
		return fmt.Errorf("failed to write index record: %w", err)
	}
	return nil
}

func (d *DynamoIndex) List(ctx context.Context) ([]model.IndexRecord, error) {
	var out []model.IndexRecord
	paginator := dynamodb.NewScanPaginator(d.client, &dynamodb.ScanInput{
		TableName: aws.String(d.table),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}
		for _, item := range page.Items {
			out = append(out, itemToRecord(item))
		}
	}
	return out, nil
}

func recordToItem(rec model.IndexRecord) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"jobId":      &types.AttributeValueMemberS{Value: rec.JobID},
		"status":     &types.AttributeValueMemberS{Value: string(rec.Status)},
		"createdAt":  &types.AttributeValueMemberS{Value: rec.CreatedAt},
		"updatedAt":  &types.AttributeValueMemberS{Value: rec.UpdatedAt},
		"pointCount": &types.AttributeValueMemberN{Value: strconv.Itoa(rec.PointCount)},
	}
	optional := map[string]string{
		"robotModel":      rec.RobotModel,
		"sourceId":        rec.SourceID,
		"rawKey":          rec.RawKey,
		"pathKey":         rec.PathKey,
		"karelKey":        rec.KarelKey,
		"krlKey":          rec.KRLKey,
		"rapidKey":        rec.RapidKey,
		"karelRefinedKey": rec.KarelRefinedKey,
		"krlRefinedKey":   rec.KRLRefinedKey,
		"rapidRefinedKey": rec.RapidRefinedKey,
	}
	for name, value := range optional {
		if value != "" {
			item[name] = &types.AttributeValueMemberS{Value: value}
		}
	}
	return item
}

func itemToRecord(item map[string]types.AttributeValue) model.IndexRecord {
	str := func(name string) string {
		if v, ok := item[name].(*types.AttributeValueMemberS); ok {
			return v.Value
		}
		return ""
	}
	rec := model.IndexRecord{
		JobID:           str("jobId"),
		Status:          model.JobStatus(str("status")),
		CreatedAt:       str("createdAt"),
		UpdatedAt:       str("updatedAt"),
		RobotModel:      str("robotModel"),
		SourceID:        str("sourceId"),
		RawKey:          str("rawKey"),
		PathKey:         str("pathKey"),
		KarelKey:        str("karelKey"),
		KRLKey:          str("krlKey"),
		RapidKey:        str("rapidKey"),
		KarelRefinedKey: str("karelRefinedKey"),
		KRLRefinedKey:   str("krlRefinedKey"),
		RapidRefinedKey: str("rapidRefinedKey"),
	}
	if v, ok := item["pointCount"].(*types.AttributeValueMemberN); ok {
		rec.PointCount, _ = strconv.Atoi(v.Value)
	}
	return rec
}
