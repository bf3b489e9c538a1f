package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medcare/clinic/internal/config"
	"github.com/medcare/clinic/internal/domain/consultation"
	"github.com/medcare/clinic/internal/domain/identity"
	"github.com/medcare/clinic/internal/domain/patient"
	"github.com/medcare/clinic/internal/domain/prescription"
	"github.com/medcare/clinic/internal/domain/scheduling"
	"github.com/medcare/clinic/internal/platform/auth"
	"github.com/medcare/clinic/internal/platform/db"
	"github.com/medcare/clinic/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinic management API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the clinic API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s).\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.IsDev() && cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-only-insecure-secret"
		logger.Warn().Msg("JWT_SECRET not set, using a throwaway development key")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	issuer := auth.NewIssuer([]byte(cfg.JWTSecret), time.Duration(cfg.TokenTTLMinutes)*time.Minute)

	// Repositories and services
	doctorRepo := identity.NewRepoPG(pool)
	patientRepo := patient.NewRepoPG(pool)
	apptRepo := scheduling.NewRepoPG(pool)
	consultRepo := consultation.NewRepoPG(pool)
	rxRepo := prescription.NewRepoPG(pool)

	doctorSvc := identity.NewService(doctorRepo, issuer)
	patientSvc := patient.NewService(patientRepo)
	apptSvc := scheduling.NewService(apptRepo, pool)

	consultSvc := consultation.NewService(consultRepo,
		func(ctx context.Context, doctorID, appointmentID uuid.UUID) (uuid.UUID, error) {
			a, err := apptSvc.Get(ctx, doctorID, appointmentID)
			if err != nil {
				return uuid.Nil, err
			}
			return a.PatientID, nil
		})

	rxSvc := prescription.NewService(rxRepo, pool,
		func(ctx context.Context, doctorID uuid.UUID) (prescription.DoctorInfo, error) {
			d, err := doctorSvc.Get(ctx, doctorID)
			if err != nil {
				return prescription.DoctorInfo{}, err
			}
			return prescription.DoctorInfo{
				Name:          d.FullName(),
				Specialty:     d.Specialty,
				LicenseNumber: d.LicenseNumber,
				Email:         d.Email,
				Phone:         d.Phone,
			}, nil
		},
		func(ctx context.Context, doctorID, patientID uuid.UUID) (prescription.PatientInfo, error) {
			p, err := patientSvc.Get(ctx, doctorID, patientID)
			if err != nil {
				return prescription.PatientInfo{}, err
			}
			return prescription.PatientInfo{
				Name:   p.FullName(),
				Gender: p.Gender,
				Age:    p.Age(time.Now()),
			}, nil
		},
		cfg.ClinicName)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": "1.0.0"})
	})
	e.GET("/health/ready", func(c echo.Context) error {
		if err := db.Ready(c.Request().Context(), pool); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"status": "ok", "db": db.Stats(pool)})
	})

	doctorHandler := identity.NewHandler(doctorSvc)

	// Public auth endpoints
	public := e.Group("/api")
	doctorHandler.RegisterPublicRoutes(public)

	// Authenticated API
	api := e.Group("/api", issuer.Middleware())
	doctorHandler.RegisterRoutes(api)
	patient.NewHandler(patientSvc).RegisterRoutes(api)
	scheduling.NewHandler(apptSvc).RegisterRoutes(api)
	consultation.NewHandler(consultSvc).RegisterRoutes(api)
	prescription.NewHandler(rxSvc).RegisterRoutes(api)

	// Dashboard aggregates the per-domain stats into one payload.
	api.GET("/dashboard/stats", func(c echo.Context) error {
		rctx := c.Request().Context()
		doctorID := auth.DoctorIDFromContext(rctx)

		appts, err := apptSvc.Stats(rctx, doctorID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "dashboard unavailable")
		}
		patients, err := patientSvc.CountByStatus(rctx, doctorID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "dashboard unavailable")
		}
		consults, err := consultSvc.CountByStatus(rctx, doctorID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "dashboard unavailable")
		}
		rx, err := rxSvc.Stats(rctx, doctorID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "dashboard unavailable")
		}
		today, _, err := apptSvc.List(rctx, doctorID,
			scheduling.Filter{DateBucket: "today", Status: scheduling.StatusScheduled}, 50, 0)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "dashboard unavailable")
		}
		recent, _, err := patientSvc.List(rctx, doctorID, patient.SearchParams{}, 5, 0)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "dashboard unavailable")
		}

		return c.JSON(http.StatusOK, map[string]interface{}{
			"appointments":       appts,
			"patients":           patients,
			"consultations":      consults,
			"prescriptions":      rx,
			"today_appointments": today,
			"recent_patients":    recent,
		})
	})

	// Start and wait for shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
