package notifier

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"frrand-backend/internal/logger"
)

// FCMNotifier delivers payloads through Firebase Cloud Messaging,
// addressing devices by their registration token.
type FCMNotifier struct {
	client *messaging.Client
}

func NewFCMNotifier(ctx context.Context, credentialsFile string) (*FCMNotifier, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, err
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, err
	}
	return &FCMNotifier{client: client}, nil
}

func (n *FCMNotifier) Send(ctx context.Context, deviceID string, payload Payload) bool {
	_, err := n.client.Send(ctx, &messaging.Message{
		Token: deviceID,
		Data:  payload,
	})
	if err != nil {
		logger.Warn("fcm send failed", "error", err)
		return false
	}
	return true
}

// LogNotifier writes payloads to the log instead of pushing them.
// Used in development and tests.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, deviceID string, payload Payload) bool {
	logger.Info("push (log only)", "device", deviceID, "type", payload["type"])
	return true
}
