package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/broker"
	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/cloud"
	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/config"
	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/database"
	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect()
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}

	var (
		mirror  service.Mirror
		alerter service.Alerter
	)
	if config.UseCloudServices() {
		dynamo, err := cloud.NewDynamoDBClient(ctx, config.AWSRegion(), config.DynamoSnapshotTable(), config.DynamoAlertTable())
		if err != nil {
			log.Fatal().Err(err).Msg("dynamodb client")
		}
		sns, err := cloud.NewSNSClient(ctx, config.AWSRegion(), config.SNSTopicArn())
		if err != nil {
			log.Fatal().Err(err).Msg("sns client")
		}
		s3, err := cloud.NewS3Client(ctx, config.AWSRegion(), config.S3Bucket())
		if err != nil {
			log.Fatal().Err(err).Msg("s3 client")
		}
		mirror = dynamo
		alerter = &service.CloudAlerter{Dynamo: dynamo, SNS: sns, S3: s3}
		log.Info().Str("region", config.AWSRegion()).Msg("cloud services enabled")
	}

	svcs := service.New(db, mirror, alerter)

	client, err := broker.Connect(config.MQTTBroker(), config.MQTTClientID())
	if err != nil {
		log.Fatal().Err(err).Msg("mqtt connect failed")
	}
	defer client.Disconnect(250)

	handler := func(_ mqtt.Client, msg mqtt.Message) {
		if err := svcs.Snapshots.FromMQTT(msg.Topic(), msg.Payload()); err != nil {
			log.Error().Err(err).Msg("ingest failed")
		}
	}

	topic := config.MQTTTopic()
	if token := client.Subscribe(topic, 0, handler); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("subscribe failed")
	}

	log.Info().Str("topic", topic).Msg("ingestor running; Ctrl+C to stop")
	<-ctx.Done()
	log.Info().Msg("ingestor stopped")
}
