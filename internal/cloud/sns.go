package cloud

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/domain"
)

type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSClient wraps AWS SNS client for notification operations
type SNSClient struct {
	svc      snsAPI
	topicArn string
}

func NewSNSClient(ctx context.Context, region, topicArn string) (*SNSClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	return &SNSClient{
		svc:      sns.NewFromConfig(cfg),
		topicArn: topicArn,
	}, nil
}

// SendAlert publishes subject and message to the configured topic
func (c *SNSClient) SendAlert(ctx context.Context, subject, message string) error {
	result, err := c.svc.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(c.topicArn),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	if err != nil {
		return fmt.Errorf("failed to publish to SNS: %w", err)
	}

	log.Info().Str("message_id", aws.ToString(result.MessageId)).Msg("alert sent")
	return nil
}

// SendFaultAlert notifies about a motor entering a critical or fault state
func (c *SNSClient) SendFaultAlert(ctx context.Context, snap domain.Snapshot) error {
	subject, message := FormatFaultAlert(snap)
	return c.SendAlert(ctx, subject, message)
}

// FormatFaultAlert renders the subject and body of a fault notification.
func FormatFaultAlert(snap domain.Snapshot) (string, string) {
	subject := fmt.Sprintf("Motor Alert: %s is %s", snap.MotorID, headline(snap))

	var b strings.Builder
	fmt.Fprintf(&b, "Motor Condition Alert\n\n")
	fmt.Fprintf(&b, "Motor: %s\n", snap.MotorID)
	fmt.Fprintf(&b, "Motor Status: %s\n", snap.MotorStatus)
	fmt.Fprintf(&b, "Fault Status: %s\n", snap.FaultData.Status)
	fmt.Fprintf(&b, "Time: %s\n\n", snap.Timestamp.Format(time.RFC3339))

	b.WriteString("Fault probabilities:\n")
	for _, f := range snap.FaultData.Faults {
		fmt.Fprintf(&b, "  %s: %.1f%%\n", f.Type, f.Probability)
	}

	urgent := 0
	for _, r := range snap.Recommendations {
		if r.Priority != domain.PriorityHigh {
			continue
		}
		if urgent == 0 {
			b.WriteString("\nUrgent actions:\n")
		}
		urgent++
		fmt.Fprintf(&b, "%d. %s (%s)\n", urgent, r.Title, r.Timeframe)
	}
	return subject, b.String()
}

func headline(snap domain.Snapshot) string {
	if snap.MotorStatus == domain.MotorFault {
		return "FAULTED"
	}
	return strings.ToUpper(string(snap.FaultData.Status))
}
