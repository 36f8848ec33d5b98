// Package bot runs the Telegram bot: the /start entry point that
// registers users, captures referrals and opens the mini-app.
package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/telebot.v3"

	"cashbux/internal/config"
	"cashbux/internal/logger"
	"cashbux/internal/storage"
)

// Bot wraps the telebot instance and its settings.
type Bot struct {
	cfg *config.Config
	tb  *telebot.Bot
}

// New creates the bot and registers its command handlers.
func New(cfg *config.Config) (*Bot, error) {
	if cfg.TelegramBotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN not set")
	}

	tb, err := telebot.NewBot(telebot.Settings{
		Token: cfg.TelegramBotToken,
		Poller: &telebot.LongPoller{
			Timeout: 10 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{cfg: cfg, tb: tb}
	tb.Handle("/start", b.handleStart)
	tb.Handle("/balance", b.handleBalance)
	tb.Handle("/help", b.handleHelp)
	return b, nil
}

// Start begins long polling. Blocks until Stop is called.
func (b *Bot) Start() {
	logger.Info(0, "bot_started", "")
	b.tb.Start()
}

// Stop halts long polling.
func (b *Bot) Stop() {
	b.tb.Stop()
	logger.Info(0, "bot_stopped", "")
}

func (b *Bot) handleStart(c telebot.Context) error {
	sender := c.Sender()
	logger.Debug(sender.ID, "command_start", fmt.Sprintf("username=%s payload=%q", sender.Username, c.Message().Payload))

	user, created, err := storage.UpsertTelegramUser(sender.ID, sender.Username,
		sender.FirstName, sender.LastName, sender.LanguageCode, b.cfg.WelcomeSpins)
	if err != nil {
		logger.Error(sender.ID, "start_upsert_user", err)
		return c.Send("Error retrieving user data. Please try again.")
	}

	// "/start <referrerTelegramID>" is the invite deep link.
	if created {
		if referrerTgID, err := strconv.ParseInt(strings.TrimSpace(c.Message().Payload), 10, 64); err == nil {
			b.recordReferral(referrerTgID, user.ID)
		}
	}

	btn := telebot.InlineButton{
		Text:   "🎰 Open CashBux",
		WebApp: &telebot.WebApp{URL: b.cfg.WebAppURL},
	}

	msg := fmt.Sprintf("Welcome to CashBux, %s! 🎉\n\nYou have %d coins and %d spins.\nComplete tasks, spin the wheel and invite friends to earn more:",
		sender.FirstName, user.Coins, user.Spins)
	return c.Send(msg, &telebot.ReplyMarkup{
		InlineKeyboard: [][]telebot.InlineButton{{btn}},
	})
}

func (b *Bot) recordReferral(referrerTgID, referredID int64) {
	referrer, err := storage.GetUserByTelegramID(referrerTgID)
	if err != nil || referrer == nil {
		return
	}
	ok, err := storage.CreateReferral(referrer.ID, referredID, b.cfg.ReferralBonusCoins)
	if err != nil {
		logger.Error(referrer.ID, "record_referral", err)
		return
	}
	if ok {
		logger.Info(referrer.ID, "referral_recorded", fmt.Sprintf("referred_id=%d bonus=%d", referredID, b.cfg.ReferralBonusCoins))
	}
}

func (b *Bot) handleBalance(c telebot.Context) error {
	sender := c.Sender()
	logger.Debug(sender.ID, "command_balance", "")

	user, err := storage.GetUserByTelegramID(sender.ID)
	if err != nil {
		logger.Error(sender.ID, "balance_lookup", err)
		return c.Send("Error retrieving your balance. Please try again.")
	}
	if user == nil {
		return c.Send("You are not registered yet. Send /start first.")
	}

	return c.Send(fmt.Sprintf("💰 Coins: %d\n💎 TON: %s\n🎰 Spins: %d\n👥 Claimable referral earnings: %d",
		user.Coins, user.Ton, user.Spins, user.ReferralEarnings))
}

func (b *Bot) handleHelp(c telebot.Context) error {
	logger.Debug(c.Sender().ID, "command_help", "")
	return c.Send("📚 Available Commands\n\n" +
		"/start - Register and open the mini-app\n" +
		"/balance - Check your balances\n" +
		"/help - Show this message")
}
