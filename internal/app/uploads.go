package app

import (
	"context"

	"shorts-web/internal/common/logging"
	"shorts-web/internal/upload"
)

func (app *App) initializeUploads(ctx context.Context) error {
	if !app.Config.S3CompensationEnabled {
		app.Logger.Info("Upload compensation: Disabled (orphaned objects are left in storage)")
		return nil
	}

	compensator, err := upload.NewS3Compensator(ctx, upload.S3Config{
		Region:          app.Config.AWSRegion,
		Bucket:          app.Config.S3Bucket,
		AccessKeyID:     app.Config.AWSAccessKeyID,
		SecretAccessKey: app.Config.AWSSecretAccessKey,
		SessionToken:    app.Config.AWSSessionToken,
	})
	if err != nil {
		return err
	}

	app.Compensator = compensator
	app.Logger.Info("Upload compensation: Enabled",
		logging.String("bucket", app.Config.S3Bucket),
		logging.String("region", app.Config.AWSRegion))
	return nil
}
