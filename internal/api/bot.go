package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	app "pcb-inspector/internal/application"
	"pcb-inspector/internal/domain/entity"
	"pcb-inspector/internal/domain/port"
)

const (
	msgHelp = `ℹ️ PCB 智能缺陷检测系统（基于多模态大模型）

1️⃣ 用 ◀ / ▶ 切换案例
2️⃣ 「显示缺陷」「显示真值」查看标注图和标准真值图
3️⃣ 「开始 AI 检测」把当前原图发送给模型，结果会显示在图片下方

📋 命令:
/start - 回到第一个案例
/case <ID> - 跳转到指定案例
/help - 帮助`

	msgSendCommand   = "📋 请使用图片下方的按钮操作，或发送 /help 查看帮助。"
	msgUnknownCmd    = "❓ 未知命令。发送 /help 查看帮助。"
	msgCaseUsage     = "用法: /case <ID>"
	msgCaseNotFound  = "❌ 没有这个案例。"
	msgBusy          = "⏳ 正在智能分析，请稍候…"
	msgImageFailed   = "⚠️ 无法加载图片: %v"
	msgInternalError = "⚠️ 内部错误，请稍后再试。"
)

// Viewer is the part of the view controller the bot drives.
type Viewer interface {
	Current(ctx context.Context, sessionID int64) (*app.View, error)
	Next(ctx context.Context, sessionID int64) (*app.View, error)
	Previous(ctx context.Context, sessionID int64) (*app.View, error)
	Select(ctx context.Context, sessionID int64, caseID int) (*app.View, error)
	ToggleReference(ctx context.Context, sessionID int64) (*app.View, error)
	ToggleDefect(ctx context.Context, sessionID int64) (*app.View, error)
	RunInspection(ctx context.Context, sessionID int64) (*app.View, error)
}

// SessionResetter starts a chat over from the first case.
type SessionResetter interface {
	Reset(ctx context.Context, sessionID int64) (*entity.Session, error)
}

// sender is the subset of *tgbotapi.BotAPI used for output.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot is the Telegram front end. Every chat is its own session and has one
// control card: the target photo with a caption and the inline keyboard.
type Bot struct {
	api      *tgbotapi.BotAPI
	out      sender
	viewer   Viewer
	sessions SessionResetter
	images   port.ImageLoader
	log      *zap.Logger

	mu    sync.Mutex
	cards map[int64]int // chat id -> message id of the control card

	inflight sync.WaitGroup
}

// NewBot connects to Telegram and creates the bot
func NewBot(token string, viewer Viewer, sessions SessionResetter, images port.ImageLoader, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}

	log.Info("authorized on account", zap.String("username", api.Self.UserName))

	b := newBot(api, viewer, sessions, images, log)
	b.api = api
	return b, nil
}

func newBot(out sender, viewer Viewer, sessions SessionResetter, images port.ImageLoader, log *zap.Logger) *Bot {
	return &Bot{
		out:      out,
		viewer:   viewer,
		sessions: sessions,
		images:   images,
		log:      log,
		cards:    make(map[int64]int),
	}
}

// Run processes updates until ctx is cancelled, then waits for running inspections.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.inflight.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// handleMessage handles commands; anything else gets a hint
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		b.sendText(msg.Chat.ID, msgSendCommand)
		return
	}

	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		if _, err := b.sessions.Reset(ctx, chatID); err != nil {
			b.fail(chatID, "reset session", err)
			return
		}
		b.showCurrent(ctx, chatID)

	case "help":
		b.sendText(chatID, msgHelp)

	case "case":
		id, err := strconv.Atoi(strings.TrimSpace(msg.CommandArguments()))
		if err != nil {
			b.sendText(chatID, msgCaseUsage)
			return
		}
		view, err := b.viewer.Select(ctx, chatID, id)
		if errors.Is(err, app.ErrCaseNotFound) {
			b.sendText(chatID, msgCaseNotFound)
			return
		}
		if err != nil {
			b.fail(chatID, "select case", err)
			return
		}
		b.sendCard(ctx, chatID, view)

	default:
		b.sendText(chatID, msgUnknownCmd)
	}
}

// handleCallback handles presses on the control card buttons
func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if q.Message == nil || q.Message.Chat == nil || !isAction(q.Data) {
		b.answer(q.ID, "")
		return
	}
	chatID := q.Message.Chat.ID
	b.rememberCard(chatID, q.Message.MessageID)

	current, err := b.viewer.Current(ctx, chatID)
	if err != nil {
		b.answer(q.ID, msgInternalError)
		b.fail(chatID, "load session", err)
		return
	}

	// While an inspection runs the only enabled buttons are the overlay toggles.
	if current.Session.Running() && q.Data != actionDefect && q.Data != actionReference {
		b.answer(q.ID, msgBusy)
		return
	}
	b.answer(q.ID, "")

	switch q.Data {
	case actionPrevious, actionNext:
		move := b.viewer.Next
		if q.Data == actionPrevious {
			move = b.viewer.Previous
		}
		view, err := move(ctx, chatID)
		if err != nil {
			b.fail(chatID, "navigate", err)
			return
		}
		b.sendCard(ctx, chatID, view)

	case actionDefect, actionReference:
		toggle, kind := b.viewer.ToggleDefect, entity.ImageDefect
		if q.Data == actionReference {
			toggle, kind = b.viewer.ToggleReference, entity.ImageReference
		}
		view, err := toggle(ctx, chatID)
		if err != nil {
			b.fail(chatID, "toggle overlay", err)
			return
		}
		shown := view.Session.ShowDefect
		if kind == entity.ImageReference {
			shown = view.Session.ShowReference
		}
		if shown {
			b.sendOverlay(ctx, chatID, view.Case, kind)
		}
		b.editCard(ctx, chatID, view)

	case actionRun:
		pending := *current
		pending.Session.Phase = entity.PhaseRunning
		pending.Session.Report = ""
		pending.Session.ErrorDetail = ""
		b.editCard(ctx, chatID, &pending)

		b.inflight.Add(1)
		go func() {
			defer b.inflight.Done()
			b.runInspection(ctx, chatID)
		}()
	}
}

// runInspection runs outside the update loop so other chats are not blocked.
func (b *Bot) runInspection(ctx context.Context, chatID int64) {
	view, err := b.viewer.RunInspection(ctx, chatID)
	if errors.Is(err, app.ErrInspectionRunning) {
		// the run already in flight will update the card
		return
	}
	if err != nil {
		b.fail(chatID, "run inspection", err)
		return
	}
	b.editCard(context.WithoutCancel(ctx), chatID, view)
}

func (b *Bot) showCurrent(ctx context.Context, chatID int64) {
	view, err := b.viewer.Current(ctx, chatID)
	if err != nil {
		b.fail(chatID, "load session", err)
		return
	}
	b.sendCard(ctx, chatID, view)
}

// sendCard posts a new control card for the current case
func (b *Bot) sendCard(ctx context.Context, chatID int64, view *app.View) {
	payload, err := b.images.Load(ctx, view.Case.PrimaryImage)
	if err != nil {
		b.log.Error("load target image", zap.Int64("chat_id", chatID), zap.Error(err))
		b.sendText(chatID, fmt.Sprintf(msgImageFailed, err))
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("case%03d%s", view.Case.ID, extension(payload.MIMEType)),
		Bytes: payload.Data,
	})
	photo.Caption = caption(view)
	photo.ReplyMarkup = keyboard(view)

	sent, err := b.out.Send(photo)
	if err != nil {
		b.log.Error("send control card", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	b.rememberCard(chatID, sent.MessageID)
}

// editCard rewrites caption and keyboard of the control card in place
func (b *Bot) editCard(ctx context.Context, chatID int64, view *app.View) {
	b.mu.Lock()
	messageID, ok := b.cards[chatID]
	b.mu.Unlock()
	if !ok {
		b.sendCard(ctx, chatID, view)
		return
	}

	edit := tgbotapi.NewEditMessageCaption(chatID, messageID, caption(view))
	markup := keyboard(view)
	edit.ReplyMarkup = &markup

	if _, err := b.out.Send(edit); err != nil {
		// Telegram answers "message is not modified" when nothing changed
		b.log.Debug("edit control card", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) sendOverlay(ctx context.Context, chatID int64, tc entity.TestCase, kind entity.ImageKind) {
	payload, err := b.images.Load(ctx, tc.Image(kind))
	if err != nil {
		b.log.Error("load overlay", zap.Int64("chat_id", chatID), zap.String("kind", string(kind)), zap.Error(err))
		b.sendText(chatID, fmt.Sprintf(msgImageFailed, err))
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("case%03d_%s%s", tc.ID, kind, extension(payload.MIMEType)),
		Bytes: payload.Data,
	})
	photo.Caption = overlayCaption(kind, tc)
	if _, err := b.out.Send(photo); err != nil {
		b.log.Error("send overlay", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) rememberCard(chatID int64, messageID int) {
	b.mu.Lock()
	b.cards[chatID] = messageID
	b.mu.Unlock()
}

func (b *Bot) answer(callbackID, text string) {
	if _, err := b.out.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.log.Debug("answer callback", zap.Error(err))
	}
}

// sendText sends a plain text message
func (b *Bot) sendText(chatID int64, text string) {
	if _, err := b.out.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.Error("send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) fail(chatID int64, op string, err error) {
	b.log.Error(op, zap.Int64("chat_id", chatID), zap.Error(err))
	b.sendText(chatID, msgInternalError)
}

func extension(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
