package initializers

import (
	"barangay-services-backend/config"
	"barangay-services-backend/fiberlog"
	artifacthandler "barangay-services-backend/lib/artifact"
	barangayhandler "barangay-services-backend/lib/barangay"
	categoryhandler "barangay-services-backend/lib/category"
	evidencehandler "barangay-services-backend/lib/evidence"
	expiryworker "barangay-services-backend/lib/expiry-worker"
	filestorage "barangay-services-backend/lib/file-storage"
	itemhandler "barangay-services-backend/lib/item"
	lifecyclehandler "barangay-services-backend/lib/lifecycle"
	notificationhandler "barangay-services-backend/lib/notification"
	requesthandler "barangay-services-backend/lib/request"
	reviewhandler "barangay-services-backend/lib/review"
	s3client "barangay-services-backend/s3"
	"context"
)

var LoggerConfig *fiberlog.Config

func InitAllServices(ctx context.Context) {
	LoggerConfig = InitLogger()
	config.InitConfig()
	InitDBConnection()
	InitS3(ctx)
	InitSmtp()
	filestorage.NewHandler(s3client.Client)
	notificationhandler.NewHandler()
	artifacthandler.NewHandler(filestorage.Instance)
	barangayhandler.NewHandler()
	itemhandler.NewHandler()
	categoryhandler.NewHandler()
	evidencehandler.NewHandler()
	requesthandler.NewHandler()
	lifecyclehandler.NewHandler()
	reviewhandler.NewHandler()
	go initWorkers(ctx)
}

func initWorkers(ctx context.Context) {
	// Expires released certificates and sweeps uploads never attached to a request
	expiryworker.NewWorker().Run(ctx)
}
