package app

import (
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/telebot.v4"

	"github.com/schooldesk/mcq-bot/internal/app/handlers/http/active_sessions_handler"
	"github.com/schooldesk/mcq-bot/internal/app/handlers/http/link_student_handler"
	"github.com/schooldesk/mcq-bot/internal/app/handlers/telegram/answer_handler"
	"github.com/schooldesk/mcq-bot/internal/app/handlers/telegram/chapter_handler"
	"github.com/schooldesk/mcq-bot/internal/app/handlers/telegram/end_session_handler"
	"github.com/schooldesk/mcq-bot/internal/app/handlers/telegram/history_handler"
	"github.com/schooldesk/mcq-bot/internal/app/handlers/telegram/next_batch_handler"
	"github.com/schooldesk/mcq-bot/internal/app/handlers/telegram/practice_handler"
	"github.com/schooldesk/mcq-bot/internal/app/handlers/telegram/quizrender"
	"github.com/schooldesk/mcq-bot/internal/app/handlers/telegram/skip_handler"
	"github.com/schooldesk/mcq-bot/internal/app/handlers/telegram/start_handler"
	"github.com/schooldesk/mcq-bot/internal/app/handlers/telegram/start_quiz_handler"
	"github.com/schooldesk/mcq-bot/internal/app/handlers/telegram/subject_handler"
	"github.com/schooldesk/mcq-bot/internal/app/handlers/telegram/teacher_report_handler"
	"github.com/schooldesk/mcq-bot/internal/backend"
	progressService "github.com/schooldesk/mcq-bot/internal/domain/progress/service"
	quizService "github.com/schooldesk/mcq-bot/internal/domain/quiz/service"
	studentsRepo "github.com/schooldesk/mcq-bot/internal/domain/students/repository"
	studentsService "github.com/schooldesk/mcq-bot/internal/domain/students/service"
	"github.com/schooldesk/mcq-bot/internal/infra/config"
	"github.com/schooldesk/mcq-bot/internal/infra/poller"
	"github.com/schooldesk/mcq-bot/internal/infra/timer"
	"github.com/schooldesk/mcq-bot/middleware"
)

type Services struct {
	studentService  *studentsService.StudentService
	progressService *progressService.ProgressService
	quizService     *quizService.QuizService
}

type App struct {
	config        *config.Config
	bot           *telebot.Bot
	db            *pgxpool.Pool
	server        *http.Server
	backendClient *backend.Client
	studentRepo   *studentsRepo.StudentRepository
	timerUpdater  *timer.Updater

	Services
}

func NewApp(configPath string) (*App, error) {
	configImpl, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("config.LoadConfig: %w", err)
	}

	db, err := InitDatabase(configImpl)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app := &App{
		config: configImpl,
		db:     db,
	}

	app.initServices()

	return app, nil
}

// Функция для инициализации сервисов и репозиториев
func (app *App) initServices() {
	app.backendClient = backend.NewClient(app.config.Backend.BaseURL, app.config.BackendTimeout())

	app.studentRepo = studentsRepo.NewStudentRepository(app.db)

	app.studentService = studentsService.NewStudentService(app.studentRepo)
	app.progressService = progressService.NewProgressService(app.backendClient)
	app.quizService = quizService.NewQuizService(app.backendClient)
}

// ListenAndServeTelegram запускает сервер Telegram бота
func (app *App) ListenAndServeTelegram() error {
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  app.config.TelegramBot.Token,
		Poller: poller.NewPoller(app.config),
	})
	if err != nil {
		return fmt.Errorf("telebot.NewBot: %w", err)
	}
	app.bot = bot
	app.timerUpdater = timer.NewTimerUpdater(bot, app.quizService)

	app.bot.Use(middleware.Recover())
	app.bot.Use(middleware.AutoRespond())
	if app.config.TelegramBot.Debug {
		app.bot.Use(middleware.Logger())
		app.bot.Use(middleware.DebugUserActions(true, func(userID int64) string {
			if st, ok := app.quizService.State(userID); ok {
				return string(st.Phase)
			}
			return ""
		}))
	}

	app.bootstrapHandlersTelegram()

	go app.bot.Start()

	return nil
}

// bootstrapHandlersTelegram - регистрирует обработчики для бота
func (app *App) bootstrapHandlersTelegram() {
	app.bot.Handle("/start", start_handler.NewStartHandler(app.studentService).GetHandlerFunc())

	// Настройка практики: предмет → глава → превью прогресса → запуск.
	app.bot.Handle(&telebot.InlineButton{Unique: quizrender.UniquePractice},
		practice_handler.NewPracticeHandler(app.studentService, app.quizService, app.config.Practice.Subjects).GetHandlerFunc())
	app.bot.Handle(&telebot.InlineButton{Unique: quizrender.UniqueSubject},
		subject_handler.NewSubjectHandler(app.studentService, app.quizService, app.backendClient).GetHandlerFunc())
	app.bot.Handle(&telebot.InlineButton{Unique: quizrender.UniqueChapter},
		chapter_handler.NewChapterHandler(app.studentService, app.quizService, app.progressService).GetHandlerFunc())
	app.bot.Handle(&telebot.InlineButton{Unique: quizrender.UniqueStartQuiz},
		start_quiz_handler.NewStartQuizHandler(app.bot, app.studentService, app.quizService, app.timerUpdater).GetHandlerFunc())

	// Активная сессия: ответ, пропуск, следующий батч, досрочное завершение.
	app.bot.Handle(&telebot.InlineButton{Unique: quizrender.UniqueAnswer},
		answer_handler.NewAnswerHandler(app.bot, app.studentService, app.quizService).GetHandlerFunc())
	app.bot.Handle(&telebot.InlineButton{Unique: quizrender.UniqueSkip},
		skip_handler.NewSkipHandler(app.bot, app.studentService, app.quizService).GetHandlerFunc())
	app.bot.Handle(&telebot.InlineButton{Unique: quizrender.UniqueNextBatch},
		next_batch_handler.NewNextBatchHandler(app.bot, app.studentService, app.quizService, app.timerUpdater).GetHandlerFunc())
	app.bot.Handle(&telebot.InlineButton{Unique: quizrender.UniqueEndSession},
		end_session_handler.NewEndSessionHandler(app.studentService, app.quizService).GetHandlerFunc())

	// Отчёты.
	app.bot.Handle(&telebot.InlineButton{Unique: quizrender.UniqueHistory},
		history_handler.NewHistoryHandler(app.studentService, app.backendClient).GetHandlerFunc())
	app.bot.Handle(&telebot.InlineButton{Unique: quizrender.UniqueTeacherReport},
		teacher_report_handler.NewTeacherReportHandler(app.studentService, app.backendClient).GetHandlerFunc())
}

// ListenAndServeHTTP запускает HTTP сервер
func (app *App) ListenAndServeHTTP() error {
	mx := http.NewServeMux()

	mx.Handle("POST /students/link", link_student_handler.NewLinkStudentHandler(app.studentService))
	mx.Handle("GET /sessions/active", active_sessions_handler.NewActiveSessionsHandler(app.studentRepo, app.quizService))

	app.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%s", app.config.Server.Host, app.config.Server.Port),
		Handler: mx,
	}

	return app.server.ListenAndServe()
}

// ListenAndServe запускает оба сервера (Telegram и HTTP)
func (app *App) ListenAndServe() error {
	// Запускаем Telegram сервер
	if err := app.ListenAndServeTelegram(); err != nil {
		return fmt.Errorf("failed to start Telegram bot: %w", err)
	}

	// Запускаем HTTP сервер
	if err := app.ListenAndServeHTTP(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}
