package error_notificator

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Infra struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewInfra — телеграм опционален: без ERROR_BOT_TOKEN/ERROR_CHAT_ID
// нотификатор молча no-op
func NewInfra() *Infra {
	token := os.Getenv("ERROR_BOT_TOKEN")
	chat := os.Getenv("ERROR_CHAT_ID")
	if token == "" || chat == "" {
		return &Infra{}
	}

	chatID, err := strconv.ParseInt(chat, 10, 64)
	if err != nil {
		log.Printf("[error_notificator] bad ERROR_CHAT_ID: %v", err)
		return &Infra{}
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		log.Printf("[error_notificator] bot init failed: %v", err)
		return &Infra{}
	}
	return &Infra{bot: bot, chatID: chatID}
}

func (i *Infra) Notify(ctx context.Context, err error, details string) error {
	if i.bot == nil {
		return nil
	}

	text := fmt.Sprintf(
		"❗ Ошибка в pdf_ziper\n\nОшибка: %v\n\nДетали: %s",
		err,
		details,
	)

	_, sendErr := i.bot.Send(tgbotapi.NewMessage(i.chatID, text))
	if sendErr != nil {
		log.Printf("[error_notificator] send fail: %v", sendErr)
		return sendErr
	}
	return nil
}
