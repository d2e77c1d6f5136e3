package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bradykim7/bookscraper/internal/models"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	colorCompleted = 0x00ff00
	colorTruncated = 0xff6600
	colorFailed    = 0xff0000

	// Discord rejects embed field values longer than this.
	maxFieldValue = 1024
	sampleSize    = 5
)

// embedSender is the part of *discordgo.Session the notifier needs.
type embedSender interface {
	SendEmbed(channelID string, embed *discordgo.MessageEmbed) error
}

// sessionSender sends through a real Discord session.
type sessionSender struct {
	session *discordgo.Session
}

func (s sessionSender) SendEmbed(channelID string, embed *discordgo.MessageEmbed) error {
	_, err := s.session.ChannelMessageSendEmbed(channelID, embed)
	return err
}

// DiscordNotifier posts a summary of each finished crawl run to a channel.
type DiscordNotifier struct {
	session   *discordgo.Session
	sender    embedSender
	channelID string
	logger    *zap.Logger
}

// NewDiscordNotifier creates a notifier using a bot token.
func NewDiscordNotifier(token, channelID string, log *zap.Logger) (*DiscordNotifier, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	n := newDiscordNotifier(sessionSender{session: session}, channelID, log)
	n.session = session
	return n, nil
}

func newDiscordNotifier(sender embedSender, channelID string, log *zap.Logger) *DiscordNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &DiscordNotifier{
		sender:    sender,
		channelID: channelID,
		logger:    log.Named("notifier"),
	}
}

// NotifyRun sends the run summary.
func (n *DiscordNotifier) NotifyRun(ctx context.Context, run *models.CrawlRun) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	embed := createRunEmbed(run)
	if err := n.sender.SendEmbed(n.channelID, embed); err != nil {
		n.logger.Error("Failed to send Discord message",
			zap.Error(err),
			zap.String("channel_id", n.channelID))
		return fmt.Errorf("failed to send notification to channel %s: %w", n.channelID, err)
	}

	n.logger.Info("Sent notification",
		zap.String("channel_id", n.channelID),
		zap.String("run_id", run.ID))
	return nil
}

// Close cleans up resources
func (n *DiscordNotifier) Close() error {
	if n.session != nil {
		return n.session.Close()
	}
	return nil
}

// createRunEmbed creates a rich embed describing a crawl run
func createRunEmbed(run *models.CrawlRun) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		{
			Name:   "Source",
			Value:  run.Source,
			Inline: true,
		},
		{
			Name:   "Pages",
			Value:  fmt.Sprintf("%d", run.Pages),
			Inline: true,
		},
		{
			Name:   "Records",
			Value:  fmt.Sprintf("%d", run.Result.Len()),
			Inline: true,
		},
		{
			Name:   "Duration",
			Value:  run.Duration().Round(time.Millisecond).String(),
			Inline: true,
		},
	}

	if run.Error != "" {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "Error",
			Value: truncate(run.Error, maxFieldValue),
		})
	}

	if sample := sampleRecords(run.Result); sample != "" {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "First records",
			Value: sample,
		})
	}

	color := colorCompleted
	switch run.Status {
	case models.RunFailed:
		color = colorFailed
	case models.RunTruncated:
		color = colorTruncated
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Crawl %s: %s", run.Status, run.Source),
		URL:         run.SeedURL,
		Description: fmt.Sprintf("Run %s", run.ID),
		Color:       color,
		Fields:      fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Finished at %s", run.FinishedAt.Format("2006-01-02 15:04:05")),
		},
	}
}

func sampleRecords(result models.CrawlResult) string {
	n := min(result.Len(), sampleSize)
	lines := make([]string, 0, n)
	for _, record := range result.Records[:n] {
		lines = append(lines, record.String())
	}
	return truncate(strings.Join(lines, "\n"), maxFieldValue)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
