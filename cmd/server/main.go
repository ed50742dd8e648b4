package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/taskhive/taskhive/internal/cache"
	"github.com/taskhive/taskhive/internal/config"
	"github.com/taskhive/taskhive/internal/database"
	"github.com/taskhive/taskhive/internal/handler"
	"github.com/taskhive/taskhive/internal/notify"
	"github.com/taskhive/taskhive/internal/queue"
	"github.com/taskhive/taskhive/internal/repository"
	"github.com/taskhive/taskhive/internal/router"
	"github.com/taskhive/taskhive/internal/storage"
)

func main() {
	initDB := flag.Bool("init-db", false, "seed the roles table and exit")
	flag.Parse()

	// A missing .env is fine in deployed environments where the
	// variables come from the process manager.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	if *initDB {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := repository.NewRoleRepo(db).Seed(ctx); err != nil {
			log.Fatalf("seed roles: %v", err)
		}
		log.Println("roles seeded")
		return
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and unread-count cache disabled")
	}
	rlCfg := config.LoadRateLimitConfig()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	projects := repository.NewProjectRepo(db)
	members := repository.NewMemberRepo(db)
	tasks := repository.NewTaskRepo(db)
	comments := repository.NewCommentRepo(db)
	files := repository.NewFileRepo(db)
	notifications := repository.NewNotificationRepo(db)

	notifier := notify.NewEngine(notifications)
	store := storage.New(cfg.UploadDir, cfg.AllowedExts)
	counter := cache.NewUnreadCounter(rdb)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	projectH := &handler.ProjectHandler{
		DB: db, Projects: projects, Tasks: tasks, Members: members,
		Users: users, Files: files, Notifier: notifier, Store: store, Counter: counter,
	}
	taskH := &handler.TaskHandler{
		DB: db, Tasks: tasks, Projects: projects, Members: members, Users: users,
		Comments: comments, Files: files, Notifier: notifier, Store: store, Counter: counter,
	}
	fileH := &handler.FileHandler{
		MaxBytes: cfg.MaxUploadBytes, Files: files, Tasks: tasks,
		Projects: projects, Members: members, Users: users, Store: store,
	}
	notificationH := &handler.NotificationHandler{Notifications: notifications, Counter: counter}
	reportH := &handler.ReportHandler{Projects: projects, Tasks: tasks, Members: members, Users: users}
	adminH := &handler.AdminHandler{Users: users}

	go func() {
		if err := queue.StartActivityConsumer(); err != nil {
			log.Printf("activity consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret, rlCfg, rdb)
	router.RegisterTracker(e, projectH, taskH, fileH, notificationH, reportH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
