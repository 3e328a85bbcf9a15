package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/bitfantasy/ppwr/internal/config"
	"github.com/bitfantasy/ppwr/internal/packaging/repository"
	"github.com/bitfantasy/ppwr/internal/packaging/service"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cmd := &cli.Command{
		Name:    "ppwr",
		Usage:   "PPWR packaging registry backend",
		Version: Version,
		Action:  serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP server",
				Action: serveAction,
			},
			{
				Name:   "migrate",
				Usage:  "create or update database tables",
				Action: migrateAction,
			},
			{
				Name:  "users",
				Usage: "user administration",
				Commands: []*cli.Command{
					{
						Name:  "promote",
						Usage: "grant the ADMIN role to a user",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "email", Usage: "email of the user to promote", Required: true},
						},
						Action: promoteAction,
					},
				},
			},
			{
				Name:  "export",
				Usage: "export packaging items to an xlsx file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Usage: "output file", Value: "packaging.xlsx"},
				},
				Action: exportAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatalf("ppwr: %v", err)
	}
}

// bootstrap 加载配置并初始化日志
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, zapLogger, nil
}

func serveAction(ctx context.Context, _ *cli.Command) error {
	cfg, zapLogger, err := bootstrap()
	if err != nil {
		return err
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting ppwr service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)
	return runServer(ctx, cfg, zapLogger)
}

func migrateAction(ctx context.Context, _ *cli.Command) error {
	cfg, zapLogger, err := bootstrap()
	if err != nil {
		return err
	}
	defer zapLogger.Sync()

	db, err := initDatabase(cfg.Database, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	if err := migrate(db.WithContext(ctx)); err != nil {
		return err
	}
	zapLogger.Info("Migration completed")
	return nil
}

func promoteAction(ctx context.Context, cmd *cli.Command) error {
	cfg, zapLogger, err := bootstrap()
	if err != nil {
		return err
	}
	defer zapLogger.Sync()

	db, err := initDatabase(cfg.Database, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	users := service.NewUserService(repository.NewUserRepository(db), service.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expire))
	user, err := users.Promote(ctx, cmd.String("email"))
	if err != nil {
		return err
	}
	zapLogger.Info("User promoted", zap.String("user_id", user.ID), zap.String("email", user.Email))
	return nil
}

func exportAction(ctx context.Context, cmd *cli.Command) error {
	cfg, zapLogger, err := bootstrap()
	if err != nil {
		return err
	}
	defer zapLogger.Sync()

	db, err := initDatabase(cfg.Database, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	store, err := initFileStore(ctx, cfg)
	if err != nil {
		return err
	}
	services := service.NewServices(repository.NewRepositories(db), store, nil, cfg, zapLogger)

	f, err := services.Packaging.Export(ctx)
	if err != nil {
		return err
	}
	defer f.Close()

	out := cmd.String("out")
	if err := f.SaveAs(out); err != nil {
		return fmt.Errorf("save %s: %w", out, err)
	}
	zapLogger.Info("Export written", zap.String("file", out))
	return nil
}
