package handlers

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
)

var jst = time.FixedZone("JST", 9*60*60)

var dateRangePattern = regexp.MustCompile(`^(\d{8})-(\d{8})$`)

const dateRangePromptText = "期間をYYYYMMDD-YYYYMMDD形式で教えてください。"

// parseDateRange reads "YYYYMMDD-YYYYMMDD" as JST days. through is the start
// of the day after the last day, so the range is half open.
func parseDateRange(text string) (from, through time.Time, ok bool) {
	m := dateRangePattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, time.Time{}, false
	}

	from, err := time.ParseInLocation("20060102", m[1], jst)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	last, err := time.ParseInLocation("20060102", m[2], jst)
	if err != nil || last.Before(from) {
		return time.Time{}, time.Time{}, false
	}
	return from, last.AddDate(0, 0, 1), true
}

// searchTransactionsByDate exports one JST day given as YYYY-MM-DD
func (h *BotHandler) searchTransactionsByDate(ctx context.Context, user *domain.User, params domain.Params) error {
	date := params.Get("date")
	day, err := time.ParseInLocation("2006-01-02", date, jst)
	if err != nil {
		return fmt.Errorf("invalid date %q", date)
	}
	return h.exportTransactions(ctx, user, day, day.AddDate(0, 0, 1))
}

func (h *BotHandler) exportTransactions(ctx context.Context, user *domain.User, from, through time.Time) error {
	period := from.In(jst).Format("2006-01-02")
	if last := through.Add(-time.Nanosecond).In(jst).Format("2006-01-02"); last != period {
		period += "~" + last
	}

	if err := h.pushText(ctx, user.UserID, fmt.Sprintf("%sの取引を検索しています...", period)); err != nil {
		return err
	}

	url, err := h.orders.ExportTransactions(ctx, user.AccessToken, from, through)
	if err != nil {
		return err
	}

	return h.pushText(ctx, user.UserID, fmt.Sprintf("download -> %s", url))
}

func (h *BotHandler) askFromWhenAndToWhen(ctx context.Context, user *domain.User) error {
	return h.pushText(ctx, user.UserID,
		fmt.Sprintf("Consoleをご利用ください。注文取引検索にてcsvダウンロードを実行できます。 %s", h.cfg.GetConsoleEndpoint()),
		dateRangePromptText,
	)
}

func (h *BotHandler) askFromWhenAndToWhenAction(ctx context.Context, user *domain.User, _ domain.Params) error {
	return h.askFromWhenAndToWhen(ctx, user)
}
