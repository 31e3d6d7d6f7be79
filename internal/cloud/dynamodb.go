package cloud

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"

	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/domain"
)

type dynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoDBClient stores snapshots and alerts in DynamoDB
type DynamoDBClient struct {
	svc           dynamoAPI
	snapshotTable string
	alertTable    string
}

// NewDynamoDBClient loads the default AWS config for region
func NewDynamoDBClient(ctx context.Context, region, snapshotTable, alertTable string) (*DynamoDBClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	return &DynamoDBClient{
		svc:           dynamodb.NewFromConfig(cfg),
		snapshotTable: snapshotTable,
		alertTable:    alertTable,
	}, nil
}

// SnapshotItem is the DynamoDB shape of a snapshot. Sensor windows are not
// mirrored; they are reconstructible from consecutive items.
type SnapshotItem struct {
	MotorID         string             `dynamodbav:"motorId"`
	Timestamp       int64              `dynamodbav:"timestamp"`
	Sequence        uint64             `dynamodbav:"sequence"`
	MotorStatus     string             `dynamodbav:"motorStatus"`
	FaultStatus     string             `dynamodbav:"faultStatus"`
	Load            float64            `dynamodbav:"load"`
	Speed           float64            `dynamodbav:"speed"`
	Temperature     float64            `dynamodbav:"temperature"`
	Efficiency      float64            `dynamodbav:"efficiency"`
	Faults          map[string]float64 `dynamodbav:"faults"`
	Recommendations []string           `dynamodbav:"recommendations"`
}

func NewSnapshotItem(snap domain.Snapshot) SnapshotItem {
	item := SnapshotItem{
		MotorID:     snap.MotorID,
		Timestamp:   snap.Timestamp.UnixMilli(),
		Sequence:    snap.Sequence,
		MotorStatus: string(snap.MotorStatus),
		FaultStatus: string(snap.FaultData.Status),
		Load:        snap.MotorData.Load,
		Speed:       snap.MotorData.Speed,
		Temperature: snap.MotorData.Temperature,
		Efficiency:  snap.MotorData.Efficiency,
		Faults:      make(map[string]float64, len(snap.FaultData.Faults)),
	}
	for _, f := range snap.FaultData.Faults {
		item.Faults[f.Type] = f.Probability
	}
	for _, r := range snap.Recommendations {
		item.Recommendations = append(item.Recommendations, r.ID)
	}
	return item
}

// PutSnapshot mirrors a snapshot into the snapshot table
func (c *DynamoDBClient) PutSnapshot(ctx context.Context, snap domain.Snapshot) error {
	item, err := attributevalue.MarshalMap(NewSnapshotItem(snap))
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	_, err = c.svc.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.snapshotTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put snapshot in DynamoDB: %w", err)
	}
	return nil
}

// Alert represents an alert stored in DynamoDB
type Alert struct {
	AlertID         string   `dynamodbav:"alertId"`
	MotorID         string   `dynamodbav:"motorId"`
	Timestamp       int64    `dynamodbav:"timestamp"`
	Severity        string   `dynamodbav:"severity"`
	Type            string   `dynamodbav:"type"`
	Message         string   `dynamodbav:"message"`
	Acknowledged    bool     `dynamodbav:"acknowledged"`
	Recommendations []string `dynamodbav:"recommendations"`
	ArchiveKey      string   `dynamodbav:"archiveKey,omitempty"`
}

// CreateAlert stores a new alert and returns its generated id
func (c *DynamoDBClient) CreateAlert(ctx context.Context, alert Alert) (string, error) {
	if alert.AlertID == "" {
		alert.AlertID = uuid.NewString()
	}
	if alert.Timestamp == 0 {
		alert.Timestamp = time.Now().Unix()
	}

	item, err := attributevalue.MarshalMap(alert)
	if err != nil {
		return "", fmt.Errorf("failed to marshal alert: %w", err)
	}

	_, err = c.svc.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.alertTable),
		Item:      item,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create alert: %w", err)
	}
	return alert.AlertID, nil
}
