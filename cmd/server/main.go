package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	directoryapp "github.com/schoolfee/backend/internal/application/directory"
	feeapp "github.com/schoolfee/backend/internal/application/fee"
	payrollapp "github.com/schoolfee/backend/internal/application/payroll"
	"github.com/schoolfee/backend/internal/domain/fee"
	"github.com/schoolfee/backend/internal/infrastructure/auth"
	"github.com/schoolfee/backend/internal/infrastructure/cache"
	"github.com/schoolfee/backend/internal/infrastructure/config"
	"github.com/schoolfee/backend/internal/infrastructure/event"
	"github.com/schoolfee/backend/internal/infrastructure/logger"
	"github.com/schoolfee/backend/internal/infrastructure/persistence"
	"github.com/schoolfee/backend/internal/infrastructure/scheduler"
	"github.com/schoolfee/backend/internal/infrastructure/storage"
	"github.com/schoolfee/backend/internal/infrastructure/telemetry"
	"github.com/schoolfee/backend/internal/interfaces/http/handler"
	"github.com/schoolfee/backend/internal/interfaces/http/middleware"
	"github.com/schoolfee/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Telemetry providers come first so the final logger can tee into OTLP
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogExportEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize log exporter", zap.Error(err))
	}

	log, err := logger.New(logCfg, loggerProvider.ZapCore(logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting school fee backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Telemetry.ProfilingEnabled,
		ServerAddress:     cfg.Telemetry.ProfilingServerAddress,
		ApplicationName:   cfg.Telemetry.ServiceName,
		Environment:       cfg.App.Env,
		BasicAuthUser:     cfg.Telemetry.ProfilingBasicAuthUser,
		BasicAuthPassword: cfg.Telemetry.ProfilingBasicAuthPass,
		Types:             cfg.Telemetry.ProfilingTypes,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() && cfg.Telemetry.ProfilingSpanProfiles {
		tracerProvider.EnableSpanProfiles()
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	meter := meterProvider.Meter(cfg.Telemetry.ServiceName)

	schoolMetrics, err := telemetry.NewSchoolMetrics(meter)
	if err != nil {
		log.Fatal("Failed to register school metrics", zap.Error(err))
	}

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)

	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err := dbTracing.Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		if _, err := telemetry.RegisterPoolMetrics(meter, sqlDB); err != nil {
			log.Warn("Failed to register connection pool metrics", zap.Error(err))
		}
	}

	// Initialize repositories
	categoryRepo := persistence.NewGormFeeCategoryRepository(db.DB)
	classFeeRepo := persistence.NewGormClassFeeRepository(db.DB)
	routeRepo := persistence.NewGormTransportRouteRepository(db.DB)
	transportFeeRepo := persistence.NewGormTransportFeeRepository(db.DB)
	optionalFeeRepo := persistence.NewGormOptionalFeeRepository(db.DB)
	customFeeRepo := persistence.NewGormCustomFeeRepository(db.DB)
	billRepo := persistence.NewGormFeeBillRepository(db.DB)
	paymentRepo := persistence.NewGormFeePaymentRepository(db.DB)
	studentRepo := persistence.NewGormStudentRepository(db.DB)
	teacherRepo := persistence.NewGormTeacherRepository(db.DB)
	attendanceRepo := persistence.NewGormAttendanceRepository(db.DB)
	schoolProvider := persistence.NewGormSchoolProvider(db.DB)
	structureRepo := persistence.NewGormSalaryStructureRepository(db.DB)
	salaryRecordRepo := persistence.NewGormSalaryRecordRepository(db.DB)

	// Report cache
	var reportCache cache.Cache = cache.NopCache{}
	if cfg.Cache.Enabled {
		reportCache, err = cache.NewFactory(cfg.Cache, cfg.Redis,
			cache.WithLogger(log),
			cache.WithInMemoryFallback(!isProduction(cfg)),
		).Create(ctx)
		if err != nil {
			log.Fatal("Failed to create report cache", zap.Error(err))
		}
	}
	defer func() {
		if err := reportCache.Close(); err != nil {
			log.Error("Error closing report cache", zap.Error(err))
		}
	}()

	// Event bus; generated bills are archived to object storage
	eventBus := event.NewInMemoryEventBus(log, 1024)
	var billStore storage.ObjectStore = storage.NewMemoryObjectStorage()
	if cfg.Storage.Enabled {
		s3Store, err := storage.NewS3ObjectStorage(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create object storage", zap.Error(err))
		}
		if err := s3Store.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to prepare storage bucket", zap.Error(err), zap.String("bucket", s3Store.Bucket()))
		}
		billStore = s3Store
	}
	eventBus.Subscribe(storage.NewBillArchiver(billStore, log))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Initialize application services
	policy, err := fee.NewBillingPolicy(
		cfg.Billing.AcademicYearStartMonth,
		cfg.Billing.QuarterlyDueMonths,
		cfg.Billing.YearlyDueMonth,
		cfg.Billing.DefaultDueDay,
	)
	if err != nil {
		log.Fatal("Invalid billing policy", zap.Error(err))
	}

	feeOpts := []feeapp.ServiceOption{feeapp.WithLogger(log), feeapp.WithMetrics(schoolMetrics)}
	catalogService := feeapp.NewCatalogService(feeapp.CatalogRepositories{
		Categories:    categoryRepo,
		ClassFees:     classFeeRepo,
		Routes:        routeRepo,
		TransportFees: transportFeeRepo,
		OptionalFees:  optionalFeeRepo,
		CustomFees:    customFeeRepo,
	}, feeOpts...)
	hikeService := feeapp.NewHikeService(classFeeRepo, transportFeeRepo, optionalFeeRepo, feeOpts...)
	billService := feeapp.NewBillService(feeapp.BillRepositories{
		Bills:         billRepo,
		Payments:      paymentRepo,
		Categories:    categoryRepo,
		ClassFees:     classFeeRepo,
		Routes:        routeRepo,
		TransportFees: transportFeeRepo,
		OptionalFees:  optionalFeeRepo,
		CustomFees:    customFeeRepo,
		Students:      studentRepo,
	}, policy, feeOpts...)
	paymentService := feeapp.NewPaymentService(billRepo, paymentRepo, feeOpts...)

	payrollOpts := []payrollapp.ServiceOption{
		payrollapp.WithLogger(log),
		payrollapp.WithMetrics(schoolMetrics),
		payrollapp.WithReportCache(reportCache, cfg.Cache.ReportTTL),
		payrollapp.WithAcademicYearStart(policy.AcademicYearStartMonth),
	}
	structureService := payrollapp.NewStructureService(structureRepo, teacherRepo, payrollOpts...)
	salaryService := payrollapp.NewSalaryService(payrollapp.SalaryRepositories{
		Structures: structureRepo,
		Records:    salaryRecordRepo,
		Teachers:   teacherRepo,
		Attendance: attendanceRepo,
	}, payrollOpts...)
	unpaidService := payrollapp.NewUnpaidService(salaryRecordRepo, teacherRepo, payrollOpts...)

	directoryService := directoryapp.NewDirectoryService(studentRepo, teacherRepo, attendanceRepo, log)
	directoryService.SetReportCache(reportCache)

	catalogService.SetEventPublisher(eventBus)
	hikeService.SetEventPublisher(eventBus)
	billService.SetEventPublisher(eventBus)
	paymentService.SetEventPublisher(eventBus)
	structureService.SetEventPublisher(eventBus)
	salaryService.SetEventPublisher(eventBus)
	log.Info("Application services initialized")

	// Monthly batch scheduler
	var (
		jobScheduler *scheduler.Scheduler
		cronTrigger  *scheduler.CronTrigger
	)
	if cfg.Scheduler.Enabled {
		executor := scheduler.NewBatchExecutor(billService, salaryService, log)
		jobScheduler = scheduler.NewScheduler(scheduler.SchedulerConfig{
			MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
			JobTimeout:        cfg.Scheduler.JobTimeout,
			RetryAttempts:     cfg.Scheduler.RetryAttempts,
			RetryDelay:        cfg.Scheduler.RetryDelay,
			QueueSize:         scheduler.DefaultSchedulerConfig().QueueSize,
		}, executor, log)
		if err := jobScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start batch scheduler", zap.Error(err))
		}
		cronTrigger = scheduler.NewCronTrigger(scheduler.CronTriggerConfig{
			BillDay:       cfg.Scheduler.BillDay,
			SalaryDay:     cfg.Scheduler.SalaryDay,
			CheckInterval: cfg.Scheduler.CheckInterval,
			RetryAttempts: cfg.Scheduler.RetryAttempts,
		}, jobScheduler, schoolProvider, log)
		if err := cronTrigger.Start(ctx); err != nil {
			log.Fatal("Failed to start cron trigger", zap.Error(err))
		}
		log.Info("Batch scheduler started",
			zap.Int("bill_day", cfg.Scheduler.BillDay),
			zap.Int("salary_day", cfg.Scheduler.SalaryDay))
	}

	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

	// Set Gin mode based on environment
	if isProduction(cfg) {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	securityCfg := middleware.DefaultSecurityConfig()
	securityCfg.HSTSEnabled = isProduction(cfg)

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		logger.GinMiddleware(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tracerProvider.IsEnabled(),
		}),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: meterProvider,
			Enabled:       meterProvider.IsEnabled(),
		}),
		middleware.CORSWithConfig(corsCfg),
		middleware.SecureWithConfig(securityCfg),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	healthHandler := handler.NewHealthHandler(db)
	engine.GET("/health", healthHandler.Health)

	// API middleware: authentication, span attributes, rate limiting
	jwtService := auth.NewJWTService(cfg.JWT)
	apiMiddleware := []gin.HandlerFunc{
		middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			JWTService:        jwtService,
			SkipPaths:         []string{"/api/v1/ping"},
			AllowTenantHeader: cfg.JWT.AllowTenantHeader && !isProduction(cfg),
			Logger:            log,
		}),
		middleware.TracingAttributeInjector(),
	}
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		go limiter.Run(ctx)
		apiMiddleware = append(apiMiddleware, middleware.RateLimit(limiter))
	}

	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithAPIMiddleware(apiMiddleware...),
	)
	r.Register(
		router.FeeRoutes(
			handler.NewCatalogHandler(catalogService, hikeService),
			handler.NewBillHandler(billService, paymentService),
			handler.NewPaymentHandler(paymentService),
		),
		router.SalaryRoutes(handler.NewSalaryHandler(structureService, salaryService, unpaidService)),
		router.DirectoryRoutes(handler.NewDirectoryHandler(directoryService)),
	)
	api := r.Setup()
	api.GET("/ping", healthHandler.Ping)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if cronTrigger != nil {
		if err := cronTrigger.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping cron trigger", zap.Error(err))
		}
	}
	if jobScheduler != nil {
		if err := jobScheduler.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping batch scheduler", zap.Error(err))
		}
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	stop()

	for name, shutdown := range map[string]func(context.Context) error{
		"tracer": tracerProvider.Shutdown,
		"meter":  meterProvider.Shutdown,
		"logger": loggerProvider.Shutdown,
	} {
		if err := shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down telemetry", zap.String("provider", name), zap.Error(err))
		}
	}

	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func isProduction(cfg *config.Config) bool {
	return cfg.App.Env == "production"
}
