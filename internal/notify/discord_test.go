package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bradykim7/bookscraper/internal/models"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeSender struct {
	channelID string
	embeds    []*discordgo.MessageEmbed
	err       error
}

func (f *fakeSender) SendEmbed(channelID string, embed *discordgo.MessageEmbed) error {
	if f.err != nil {
		return f.err
	}
	f.channelID = channelID
	f.embeds = append(f.embeds, embed)
	return nil
}

func testRun(status models.RunStatus, n int) *models.CrawlRun {
	run := models.NewCrawlRun("books", "https://books.toscrape.com/")
	run.FinishedAt = run.StartedAt.Add(1234 * time.Millisecond)
	run.Pages = 2
	run.Status = status
	for i := range n {
		run.Result.Records = append(run.Result.Records,
			models.NewRecord(models.Text("title", fmt.Sprintf("Book %d", i)), models.Text("price", "£10.00")))
	}
	return run
}

func fieldValue(embed *discordgo.MessageEmbed, name string) (string, bool) {
	for _, f := range embed.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

func TestNotifyRunSendsEmbed(t *testing.T) {
	sender := &fakeSender{}
	n := newDiscordNotifier(sender, "chan-1", zaptest.NewLogger(t))

	run := testRun(models.RunCompleted, 7)
	require.NoError(t, n.NotifyRun(context.Background(), run))

	require.Len(t, sender.embeds, 1)
	assert.Equal(t, "chan-1", sender.channelID)

	embed := sender.embeds[0]
	assert.Equal(t, "Crawl completed: books", embed.Title)
	assert.Equal(t, colorCompleted, embed.Color)
	assert.Equal(t, "https://books.toscrape.com/", embed.URL)

	records, _ := fieldValue(embed, "Records")
	assert.Equal(t, "7", records)
	duration, _ := fieldValue(embed, "Duration")
	assert.Equal(t, "1.234s", duration)

	sample, ok := fieldValue(embed, "First records")
	require.True(t, ok)
	assert.Len(t, strings.Split(sample, "\n"), sampleSize)
	assert.True(t, strings.HasPrefix(sample, `{title="Book 0", price="£10.00"}`))

	_, hasError := fieldValue(embed, "Error")
	assert.False(t, hasError)
	assert.NoError(t, n.Close())
}

func TestCreateRunEmbedStatusColors(t *testing.T) {
	failed := testRun(models.RunFailed, 0)
	failed.Error = "fetch https://books.toscrape.com/catalogue/page-2.html: unexpected HTTP status (status 503)"

	embed := createRunEmbed(failed)
	assert.Equal(t, colorFailed, embed.Color)
	errValue, ok := fieldValue(embed, "Error")
	require.True(t, ok)
	assert.Equal(t, failed.Error, errValue)
	_, hasSample := fieldValue(embed, "First records")
	assert.False(t, hasSample)

	assert.Equal(t, colorTruncated, createRunEmbed(testRun(models.RunTruncated, 1)).Color)
}

func TestNotifyRunSendError(t *testing.T) {
	sender := &fakeSender{err: errors.New("HTTP 403 Forbidden")}
	n := newDiscordNotifier(sender, "chan-1", nil)

	err := n.NotifyRun(context.Background(), testRun(models.RunCompleted, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chan-1")
}

func TestNotifyRunCancelled(t *testing.T) {
	sender := &fakeSender{}
	n := newDiscordNotifier(sender, "chan-1", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.NotifyRun(ctx, testRun(models.RunCompleted, 1)), context.Canceled)
	assert.Empty(t, sender.embeds)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "ééé...", truncate(strings.Repeat("é", 20), 6))
}
