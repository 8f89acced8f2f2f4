package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"labportal/internal/config"
	"labportal/internal/database"
	"labportal/internal/export"
	"labportal/internal/google"
	"labportal/internal/logging"
	"labportal/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

type options struct {
	from     string
	to       string
	sheets   bool
	telegram bool
}

func main() {
	var opts options
	flag.StringVar(&opts.from, "from", "", "only bookings ending on or after this date (YYYY-MM-DD)")
	flag.StringVar(&opts.to, "to", "", "only bookings starting on or before this date (YYYY-MM-DD)")
	flag.BoolVar(&opts.sheets, "sheets", false, "rewrite the Google Sheets mirror from the database")
	flag.BoolVar(&opts.telegram, "telegram", false, "send the workbook to the admin Telegram chats")
	flag.Parse()

	if err := run(opts); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run(opts options) error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}
	logger := logging.Component(baseLogger, "report")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	bookings, err := db.ListBookings(ctx, models.BookingFilter{From: opts.from, To: opts.to})
	if err != nil {
		return err
	}

	path, err := export.NewExporter(cfg.Exports.Path, logger).SaveBookings(bookings, time.Now())
	if err != nil {
		return err
	}

	if opts.sheets {
		if err := resyncSheets(ctx, cfg, bookings, logger); err != nil {
			return err
		}
	}
	if opts.telegram {
		if err := sendToAdmins(cfg.Notifications.Telegram, path, len(bookings), logger); err != nil {
			return err
		}
	}
	return nil
}

func resyncSheets(ctx context.Context, cfg *config.Config, bookings []*models.Booking, logger *zerolog.Logger) error {
	if cfg.Google.GoogleCredentialsFile == "" || cfg.Google.BookingSpreadSheetID == "" {
		return fmt.Errorf("google sheets is not configured")
	}
	sheetsService, err := google.NewSheetsService(ctx, cfg.Google.GoogleCredentialsFile, cfg.Google.BookingSpreadSheetID)
	if err != nil {
		return err
	}
	if err := sheetsService.ReplaceBookings(ctx, bookings); err != nil {
		return err
	}
	logger.Info().Int("bookings", len(bookings)).Msg("google sheets rewritten")
	return nil
}

func sendToAdmins(cfg config.TelegramConfig, path string, count int, logger *zerolog.Logger) error {
	if cfg.BotToken == "" || len(cfg.AdminChatIDs) == 0 {
		return fmt.Errorf("telegram is not configured")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("telegram bot: %w", err)
	}
	bot.Debug = cfg.Debug

	var sent int
	for _, chatID := range cfg.AdminChatIDs {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
		doc.Caption = fmt.Sprintf("%s: %d booking(s)", filepath.Base(path), count)
		if _, err := bot.Send(doc); err != nil {
			logger.Warn().Err(err).Int64("chat_id", chatID).Msg("failed to send export")
			continue
		}
		sent++
	}
	if sent == 0 {
		return fmt.Errorf("export was not delivered to any admin chat")
	}
	logger.Info().Int("chats", sent).Str("file_path", path).Msg("export sent")
	return nil
}
