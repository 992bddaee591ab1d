package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cyberguard/internal/content"
	"cyberguard/internal/llm"
	"cyberguard/internal/monitor"
	"cyberguard/internal/scanner"
	"cyberguard/internal/transcript"
)

const (
	textBusy        = "CyberGuard AI กำลังประมวลผลคำถามก่อนหน้า กรุณารอสักครู่"
	textReset       = "ล้างบทสนทนาเรียบร้อยแล้ว"
	textUnavailable = "ระบบ AI ยังไม่พร้อมใช้งาน กรุณาติดต่อผู้ดูแลระบบ"
	textScanUsage   = "วิธีใช้: /scan <ลิงก์หรือข้อความที่ต้องการตรวจสอบ>"
	textScanBusy    = "กำลังตรวจสอบรายการก่อนหน้า กรุณารอสักครู่"
	textNoMatches   = "ไม่พบรายการที่ตรงกับคำค้นหา"
	textNoMonitor   = "ระบบเฝ้าระวังไม่ได้เปิดใช้งาน"
	textUnknownCmd  = "ไม่รู้จักคำสั่งนี้ ลองใช้ /start เพื่อดูคำสั่งทั้งหมด"
)

const helpText = `คำสั่งที่ใช้ได้:
/scan <ลิงก์หรือข้อความ> ตรวจสอบความเสี่ยง
/attacks [คำค้น] รูปแบบการโจมตีที่พบบ่อย
/future [คำค้น] ภัยคุกคามในอนาคต
/monitor สถานะระบบเฝ้าระวัง
/reset ล้างบทสนทนา

พิมพ์ข้อความอื่นเพื่อถาม CyberGuard AI`

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		b.sendMessage(chatID, transcript.Greeting+"\n\n"+helpText)
	case "reset":
		b.resetChat(chatID)
	case "scan":
		b.handleScan(ctx, chatID, args)
	case "attacks":
		b.sendMessage(chatID, formatCards("รูปแบบการโจมตีที่พบบ่อย", content.Filter(content.AttackTypes(), args)))
	case "future":
		b.sendMessage(chatID, formatCards("ภัยคุกคามในอนาคต", content.Filter(content.FutureThreats(), args)))
	case "monitor":
		if b.monitor == nil {
			b.sendMessage(chatID, textNoMonitor)
			return
		}
		b.sendMessage(chatID, formatState(b.monitor.Snapshot()))
	default:
		b.sendMessage(chatID, textUnknownCmd)
	}
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if strings.TrimSpace(msg.Text) == "" {
		return
	}
	c := b.chatFor(msg.Chat.ID)
	b.logger.Debug().Int64("chat_id", msg.Chat.ID).Int("len", len(msg.Text)).Msg("incoming message")

	_, _ = b.s.Request(tgbotapi.NewChatAction(msg.Chat.ID, tgbotapi.ChatTyping))

	err := c.transcript.Send(ctx, msg.Text)
	switch {
	case err == nil:
		msgs := c.transcript.Messages()
		b.sendWithMenu(msg.Chat.ID, msgs[len(msgs)-1].Text)
	case errors.Is(err, transcript.ErrBusy):
		b.sendMessage(msg.Chat.ID, textBusy)
	case errors.Is(err, transcript.ErrEmptyInput):
	default:
		var cfgErr *llm.ConfigError
		if !errors.As(err, &cfgErr) {
			b.logger.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("chat turn failed")
		}
		b.sendMessage(msg.Chat.ID, textUnavailable)
	}
}

func (b *Bot) handleScan(ctx context.Context, chatID int64, candidate string) {
	if candidate == "" {
		b.sendMessage(chatID, textScanUsage)
		return
	}
	c := b.chatFor(chatID)
	res, err := c.scanner.Scan(ctx, candidate)
	switch {
	case err == nil:
		b.sendMessage(chatID, formatResult(res))
	case errors.Is(err, scanner.ErrBusy):
		b.sendMessage(chatID, textScanBusy)
	default:
		b.sendMessage(chatID, textScanUsage)
	}
}

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	if cb.Data == resetCmd {
		_, _ = b.s.Request(tgbotapi.NewCallback(cb.ID, ""))
		b.resetChat(cb.Message.Chat.ID)
	}
}

func (b *Bot) resetChat(chatID int64) {
	c := b.chatFor(chatID)
	if err := c.transcript.Reset(); err != nil {
		b.sendMessage(chatID, textBusy)
		return
	}
	c.scanner.Clear()
	b.sendMessage(chatID, textReset+"\n\n"+transcript.Greeting)
}

func formatCards(title string, cards []content.Card) string {
	if len(cards) == 0 {
		return textNoMatches
	}
	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString("\n")
	for _, c := range cards {
		fmt.Fprintf(&sb, "\n• %s\n%s\n", c.Title, c.Description)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatResult(r scanner.Result) string {
	if r.Safe {
		return "✅ ปลอดภัย\n" + r.Message
	}
	return "⚠️ มีความเสี่ยง\n" + r.Message
}

func formatState(st monitor.State) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ระบบเฝ้าระวัง (%s)\n", st.Variant)
	fmt.Fprintf(&sb, "บล็อกแล้ว: %d\n", st.BlockedCount)
	if st.FilesMonitored > 0 {
		fmt.Fprintf(&sb, "ไฟล์ที่เฝ้าระวัง: %d\n", st.FilesMonitored)
	}
	fmt.Fprintf(&sb, "ภัยคุกคามที่ใช้งานอยู่: %d/%d (%s)\n", st.ActiveThreats, st.ThreatCap, st.ThreatLevel)
	if len(st.Alerts) > 0 {
		sb.WriteString("\nการแจ้งเตือนล่าสุด:\n")
		for _, a := range st.Alerts {
			fmt.Fprintf(&sb, "- %s\n", a)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
