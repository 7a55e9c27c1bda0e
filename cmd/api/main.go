package main

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/bitshare/bitshare-api/internal/config"
	"github.com/bitshare/bitshare-api/internal/logging"
	"github.com/bitshare/bitshare-api/internal/media"
	miniorepo "github.com/bitshare/bitshare-api/internal/repository/minio"
	"github.com/bitshare/bitshare-api/internal/repository/postgres"
	"github.com/bitshare/bitshare-api/internal/service"
	transport "github.com/bitshare/bitshare-api/internal/transport/http"
	"github.com/bitshare/bitshare-api/internal/transport/mail"
	"github.com/bitshare/bitshare-api/internal/util"
)

func main() {
	cfg := config.Load()

	if cfg.LogstashTCPAddr != "" {
		writer, err := logging.NewLogstashWriter(cfg.LogstashTCPAddr)
		if err != nil {
			log.Printf("logstash disabled: %v", err)
		} else {
			defer writer.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, writer))
		}
	}

	db, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	if err := postgres.Migrate(context.Background(), db); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	minioClient, err := miniorepo.NewClient(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOUseSSL)
	if err != nil {
		log.Fatalf("connect object storage: %v", err)
	}

	users := postgres.NewUserRepo(db)
	verifications := postgres.NewVerificationRepo(db)
	objectStore := miniorepo.NewObjectStore(minioClient)
	mailer := mail.NewOTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	processor := media.NewFFMPEGProcessor(cfg.FFMPEGPath, cfg.ProfilePicMaxDim)

	tokens := util.NewTokenIssuer(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	otps := service.NewOTPService(verifications, mailer, cfg.OTPLength, cfg.OTPTTL)
	auth := service.NewAuthService(users, otps, tokens, cfg.GoogleAudience)
	storage := service.NewStorageService(users, objectStore, processor, cfg.MinIOBucket, cfg.PresignTTL, cfg.ProfilePicMaxDim)

	e := transport.NewRouter(cfg.AllowOrigins)
	transport.RegisterAuth(e, auth, otps)
	transport.RegisterStorage(e, auth, storage)
	transport.RegisterSwagger(e)

	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
