// Package api provides handlers for external APIs and interfaces
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/abelzeko/erfiume-bot/internal/entities"
	"github.com/abelzeko/erfiume-bot/internal/metrics"
	"github.com/abelzeko/erfiume-bot/internal/usecases"
)

const (
	defaultStationQuery = "Cesena"

	notFoundText = "Stazione non trovata!\n" +
		"Inserisci esattamente il nome che vedi dalla pagina https://allertameteo.regione.emilia-romagna.it/livello-idrometrico\n" +
		"Ad esempio 'Cesena', 'Lavino di Sopra' o 'S. Carlo'.\n" +
		"Se non sai quale cercare prova con /stazioni"

	refineHintText = "Se non è la stazione corretta prova ad affinare la ricerca."

	errorText = "Si è verificato un errore, riprova più tardi."

	helpText = "Comandi disponibili:\n" +
		"/start - Inizia ad interagire con il bot\n" +
		"/stazioni - Visualizza la lista delle stazioni disponibili\n" +
		"/cesena - Livello idrometrico della stazione di Cesena\n" +
		"/avvisami - Ricevi un avviso quando una stazione supera una soglia\n" +
		"/lista_avvisi - Visualizza i tuoi avvisi\n" +
		"/rimuovi_avviso - Rimuovi un avviso\n" +
		"/info - Ottieni informazioni riguardanti il bot\n" +
		"/help - Visualizza la lista dei comandi"

	infoText = "Bot Telegram che permette di leggere i livelli idrometrici dei fiumi dell'Emilia-Romagna. " +
		"I dati idrometrici sono ottenuti dalle API messe a disposizione da allertameteo.regione.emilia-romagna.it\n\n" +
		"Il progetto è completamente open-source (https://github.com/notdodo/erfiume_bot).\n" +
		"Per donazioni per mantenere il servizio attivo: buymeacoffee.com/d0d0\n\n" +
		"Inizia con /start o /stazioni"

	alertsUnavailableText = "Funzionalità non disponibile al momento."
	alertUsageText        = "Uso: /avvisami <stazione> <valoreSoglia>"
	alertRemoveUsageText  = "Uso: /rimuovi_avviso <stazione> oppure /rimuovi_avviso <numero>"
	alertNoStationText    = "Nessuna stazione trovata con quel nome. Usa /stazioni per vedere l'elenco."
	alertSaveErrorText    = "Errore nel salvataggio dell'avviso. Riprova più tardi."
	alertListErrorText    = "Errore nel recupero degli avvisi. Riprova più tardi."
	alertBadIndexText     = "Numero non valido. Usa /lista_avvisi per vedere gli avvisi attivi."
	alertNotRemovedText   = "Non ho trovato un avviso attivo per questa stazione."
)

// TelegramBot handles interactions with the Telegram API
type TelegramBot struct {
	bot      *tgbotapi.BotAPI
	useCase  *usecases.StationUseCase
	gate     *usecases.ThrottleGate
	promo    *usecases.PromoSampler
	alerts   *usecases.AlertUseCase
	username string
}

// NewTelegramBot creates a new Telegram bot handler. alerts may be nil to
// disable the alert commands.
func NewTelegramBot(botToken string, useCase *usecases.StationUseCase, gate *usecases.ThrottleGate, promo *usecases.PromoSampler, alerts *usecases.AlertUseCase) (*TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &TelegramBot{
		bot:      bot,
		useCase:  useCase,
		gate:     gate,
		promo:    promo,
		alerts:   alerts,
		username: bot.Self.UserName,
	}, nil
}

// Start begins listening for and handling Telegram messages until ctx is done
func (t *TelegramBot) Start(ctx context.Context) {
	slog.Info("authorized on telegram account", "username", t.username)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.bot.GetUpdatesChan(u)
	slog.Info("bot is now listening for messages")

	for {
		select {
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			slog.Info("bot stopped listening for messages")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			t.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage processes a Telegram message update
func (t *TelegramBot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	slog.Info("received message",
		"chat_id", message.Chat.ID,
		"chat_type", message.Chat.Type,
		"identity", senderIdentity(message),
		"text", message.Text)

	text, disablePreview := t.buildReply(ctx, message)
	if text == "" {
		return
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.DisableWebPagePreview = disablePreview
	if message.Chat.IsGroup() || message.Chat.IsSuperGroup() {
		msg.ReplyToMessageID = message.MessageID
	}

	slog.Debug("sending response", "chat_id", message.Chat.ID)
	if _, err := t.bot.Send(msg); err != nil {
		slog.Error("error sending message", "chat_id", message.Chat.ID, "error", err)
	}
}

// buildReply returns the text to send for message, or "" when the bot stays
// silent. The second value reports whether link previews should be disabled.
func (t *TelegramBot) buildReply(ctx context.Context, message *tgbotapi.Message) (string, bool) {
	if strings.TrimSpace(message.Text) == "" {
		return "", false
	}

	isGroup := message.Chat.IsGroup() || message.Chat.IsSuperGroup()
	if isGroup && !message.IsCommand() && !t.mentionsBot(message.Text) {
		metrics.ChatRequests.WithLabelValues("ignored").Inc()
		return "", false
	}

	if message.IsCommand() {
		if isGroup && t.addressedToOtherBot(message) {
			metrics.ChatRequests.WithLabelValues("ignored").Inc()
			return "", false
		}

		switch strings.ToLower(message.Command()) {
		case "start":
			metrics.ChatRequests.WithLabelValues("command").Inc()
			return t.startText(message), true
		case "help":
			metrics.ChatRequests.WithLabelValues("command").Inc()
			return helpText, true
		case "info":
			metrics.ChatRequests.WithLabelValues("command").Inc()
			return infoText, true
		case "stazioni":
			metrics.ChatRequests.WithLabelValues("command").Inc()
			return strings.Join(t.useCase.KnownStations(), "\n"), true
		case "cesena":
			// A shortcut for a station query: throttled and counted as one,
			// and like every command it needs no mention in groups.
			return t.stationReply(ctx, message, defaultStationQuery), false
		case "avvisami":
			metrics.ChatRequests.WithLabelValues("alert").Inc()
			return t.subscribeReply(ctx, message), true
		case "lista_avvisi":
			metrics.ChatRequests.WithLabelValues("alert").Inc()
			return t.listAlertsReply(ctx, message), true
		case "rimuovi_avviso":
			metrics.ChatRequests.WithLabelValues("alert").Inc()
			return t.unsubscribeReply(ctx, message), true
		}
	}

	// Unknown commands such as /SCarlo are station queries too
	return t.stationReply(ctx, message, t.cleanQuery(message.Text)), false
}

// stationReply runs the gated station query flow
func (t *TelegramBot) stationReply(ctx context.Context, message *tgbotapi.Message, query string) string {
	metrics.ChatRequests.WithLabelValues("station").Inc()

	if t.gate != nil {
		wait, err := t.gate.Check(ctx, senderIdentity(message))
		if err != nil {
			slog.Error("throttle check failed", "error", err)
			return errorText
		}
		if wait > 0 {
			return fmt.Sprintf("Hai fatto troppe richieste, riprova tra %d secondi.", wait)
		}
	}

	if query == "" {
		return notFoundText
	}

	lookup, err := t.useCase.LookupStation(ctx, query)
	if err != nil {
		slog.Error("station lookup failed", "query", query, "error", err)
		return errorText
	}
	if !lookup.Found {
		return notFoundText
	}

	text := usecases.FormatStationInfo(lookup.Station)
	if !strings.EqualFold(lookup.Match.Name, query) {
		text += "\n" + refineHintText
	}
	if t.promo != nil {
		text = t.promo.Decorate(text)
	}
	return text
}

func (t *TelegramBot) subscribeReply(ctx context.Context, message *tgbotapi.Message) string {
	station, threshold, ok := usecases.ParseAlertArgs(message.CommandArguments())
	if !ok {
		return alertUsageText
	}
	if t.alerts == nil {
		return alertsUnavailableText
	}

	alert, err := t.alerts.Subscribe(ctx, message.Chat.ID, station, threshold)
	switch {
	case errors.Is(err, usecases.ErrAlertStationNotFound):
		return alertNoStationText
	case errors.Is(err, usecases.ErrAlertLimitReached):
		return fmt.Sprintf("Hai già impostato %d avvisi. Per evitare spam, il limite è %d.",
			entities.MaxAlertsPerChat, entities.MaxAlertsPerChat)
	case err != nil:
		slog.Error("failed to save alert", "chat_id", message.Chat.ID, "station", station, "error", err)
		return alertSaveErrorText
	}
	return fmt.Sprintf("Ok! Ti avviserò quando %s supera %s.", alert.StationName, decimal.NewFromFloat(alert.Threshold).String())
}

func (t *TelegramBot) listAlertsReply(ctx context.Context, message *tgbotapi.Message) string {
	if t.alerts == nil {
		return alertsUnavailableText
	}

	alerts, err := t.alerts.List(ctx, message.Chat.ID)
	if err != nil {
		slog.Error("failed to list alerts", "chat_id", message.Chat.ID, "error", err)
		return alertListErrorText
	}
	return usecases.FormatAlertList(alerts, time.Now(), t.alerts.Cooldown())
}

func (t *TelegramBot) unsubscribeReply(ctx context.Context, message *tgbotapi.Message) string {
	arg := strings.TrimSpace(message.CommandArguments())
	if arg == "" {
		return alertRemoveUsageText
	}
	if t.alerts == nil {
		return alertsUnavailableText
	}

	station, removed, err := t.alerts.Unsubscribe(ctx, message.Chat.ID, arg)
	switch {
	case errors.Is(err, usecases.ErrAlertIndexOutOfRange):
		return alertBadIndexText
	case errors.Is(err, usecases.ErrAlertStationNotFound):
		return alertNoStationText
	case err != nil:
		slog.Error("failed to remove alert", "chat_id", message.Chat.ID, "arg", arg, "error", err)
		return alertListErrorText
	case !removed:
		return alertNotRemovedText
	}
	return fmt.Sprintf("Avviso rimosso per %s.", station)
}

func (t *TelegramBot) startText(message *tgbotapi.Message) string {
	if message.Chat.IsGroup() || message.Chat.IsSuperGroup() {
		return fmt.Sprintf("Ciao %s! Scrivete il nome di una stazione da monitorare (e.g. /Cesena@%s o /Borello@%s) "+
			"o cercatene una con /stazioni@%s", message.Chat.Title, t.username, t.username, t.username)
	}

	name := message.Chat.UserName
	if name == "" {
		name = message.Chat.FirstName
	}
	return fmt.Sprintf("Ciao @%s! Scrivi il nome di una stazione da monitorare (e.g. `Cesena` o /SCarlo) "+
		"o cercane una con /stazioni", name)
}

func (t *TelegramBot) mentionsBot(text string) bool {
	return t.username != "" && strings.Contains(strings.ToLower(text), "@"+strings.ToLower(t.username))
}

// addressedToOtherBot reports whether a command names another bot, as in /help@other_bot
func (t *TelegramBot) addressedToOtherBot(message *tgbotapi.Message) bool {
	_, target, ok := strings.Cut(message.CommandWithAt(), "@")
	return ok && !strings.EqualFold(target, t.username)
}

// cleanQuery drops the bot mention, in any letter case, and slashes from a free-text query
func (t *TelegramBot) cleanQuery(text string) string {
	if t.username != "" {
		mention := regexp.MustCompile(`(?i)@` + regexp.QuoteMeta(t.username))
		text = mention.ReplaceAllString(text, "")
	}
	text = strings.ReplaceAll(text, "/", "")
	return strings.TrimSpace(text)
}

// senderIdentity is the throttle key: the sending user, else the chat
func senderIdentity(message *tgbotapi.Message) int64 {
	if message.From != nil {
		return message.From.ID
	}
	return message.Chat.ID
}
