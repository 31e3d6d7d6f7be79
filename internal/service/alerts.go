package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/cloud"
	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/domain"
)

// CloudAlerter archives the triggering snapshot to S3, records an alert in
// DynamoDB and notifies the SNS topic.
type CloudAlerter struct {
	Dynamo *cloud.DynamoDBClient
	SNS    *cloud.SNSClient
	S3     *cloud.S3Client
}

func (a *CloudAlerter) Alert(ctx context.Context, snap domain.Snapshot) error {
	var key string
	if a.S3 != nil {
		k, err := a.S3.ArchiveSnapshot(ctx, snap)
		if err != nil {
			// The alert still goes out without the archive reference.
			log.Error().Err(err).Str("motor", snap.MotorID).Msg("archive failed")
		}
		key = k
	}

	subject, message := cloud.FormatFaultAlert(snap)
	if a.Dynamo != nil {
		alert := cloud.Alert{
			MotorID:    snap.MotorID,
			Timestamp:  snap.Timestamp.Unix(),
			Severity:   severity(snap),
			Type:       alertType(snap),
			Message:    subject,
			ArchiveKey: key,
		}
		for _, r := range snap.Recommendations {
			alert.Recommendations = append(alert.Recommendations, r.ID)
		}
		if _, err := a.Dynamo.CreateAlert(ctx, alert); err != nil {
			return fmt.Errorf("record alert: %w", err)
		}
	}

	if a.SNS != nil {
		if err := a.SNS.SendAlert(ctx, subject, message); err != nil {
			return fmt.Errorf("notify: %w", err)
		}
	}
	return nil
}

func severity(snap domain.Snapshot) string {
	if snap.MotorStatus == domain.MotorFault || snap.FaultData.Status == domain.FaultCritical {
		return "critical"
	}
	return string(snap.FaultData.Status)
}

func alertType(snap domain.Snapshot) string {
	if snap.MotorStatus == domain.MotorFault {
		return "motor_fault"
	}
	return "fault_probability"
}
