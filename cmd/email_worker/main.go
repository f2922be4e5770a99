package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/piousdev/roel-agency/config"
	"github.com/piousdev/roel-agency/pkg/helpers"
	"github.com/piousdev/roel-agency/pkg/mailer"
)

// sender delivers one rendered message.
type sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// outcome is what the worker does with a delivery after handling it.
type outcome int

const (
	ack outcome = iota
	drop
	requeue
)

// handle decodes, renders and sends one queued job.
func handle(ctx context.Context, logger logrus.FieldLogger, mg sender, body []byte) outcome {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		logger.WithError(err).Warn("undecodable email job dropped")
		return drop
	}
	if job.To == "" {
		logger.Warn("email job without recipient dropped")
		return drop
	}
	subject, text, html, err := mailer.Render(job)
	if err != nil {
		logger.WithError(err).WithField("template", job.Template).Error("render email failed")
		return drop
	}

	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := mg.Send(c, job.To, subject, text, html); err != nil {
		logger.WithError(err).WithField("template", job.Template).Warn("send failed, requeueing")
		return requeue
	}
	logger.WithField("template", job.Template).Info("email sent")
	return ack
}

func settle(msg amqp.Delivery, o outcome) {
	switch o {
	case ack:
		_ = msg.Ack(false)
	case requeue:
		_ = msg.Nack(false, true)
	default:
		_ = msg.Nack(false, false)
	}
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env, cfg.LogLevel)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		logger.Fatal("Mailgun not configured")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.WithError(err).Fatal("amqp dial")
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.WithError(err).Fatal("amqp channel")
	}
	defer func() { _ = ch.Close() }()

	// prefetch for fair dispatch
	if err := ch.Qos(16, 0, false); err != nil {
		logger.WithError(err).Fatal("qos")
	}
	if err := helpers.DeclareQueue(ch, cfg.RabbitMQEmailQueue); err != nil {
		logger.WithError(err).Fatal("queue declare")
	}

	msgs, err := ch.Consume(cfg.RabbitMQEmailQueue, "", false, false, false, false, nil)
	if err != nil {
		logger.WithError(err).Fatal("consume")
	}

	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for msg := range msgs {
			settle(msg, handle(ctx, logger.WithField("message_id", msg.MessageId), mg, msg.Body))
		}
	}()

	logger.WithField("queue", cfg.RabbitMQEmailQueue).Info("email worker listening")
	<-stop
	logger.Info("shutting down...")
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}
