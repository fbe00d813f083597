package notifier

import (
	"fmt"
	"html"
	"strings"

	"github.com/dustin/go-humanize"

	"SignalSentinel/internal/model"
)

var indicatorLabels = map[model.Indicator]string{
	model.IndicatorMA10: "MA10 突破",
	model.IndicatorMA14: "MA14 突破",
	model.IndicatorMACD: "MACD 零轴下金叉",
	model.IndicatorKDJ:  "KDJ 低位金叉",
}

// IndicatorLabel returns the display name of an indicator condition.
func IndicatorLabel(ind model.Indicator) string {
	if l, ok := indicatorLabels[ind]; ok {
		return l
	}
	return string(ind)
}

// FormatAlert formats an opportunity alert for one symbol.
func FormatAlert(item model.WatchlistItem, res *model.SignalResult, triggered []model.Indicator) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🚀 <b>机会预警: %s</b>\n", html.EscapeString(item.Symbol)))
	b.WriteString(fmt.Sprintf("价格: %s\n", formatPrice(res.Price)))
	if !res.BarDate.IsZero() {
		b.WriteString(fmt.Sprintf("K线日期: %s\n", res.BarDate.UTC().Format("2006-01-02")))
	}
	if res.Volume > 0 {
		b.WriteString(fmt.Sprintf("成交量: %s\n", humanize.SIWithDigits(res.Volume, 2, "")))
	}

	b.WriteString("\n<b>触发指标:</b>\n")
	for _, ind := range triggered {
		b.WriteString(fmt.Sprintf("  - %s\n", IndicatorLabel(ind)))
	}

	b.WriteString("\n<b>详细数据:</b>\n")
	b.WriteString(formatValues(res.Values))
	return b.String()
}

func formatValues(v model.IndicatorValues) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("  MA10: %s\n", optFloat(v.MA10)))
	b.WriteString(fmt.Sprintf("  MA14: %s\n", optFloat(v.MA14)))
	if v.MACD != nil {
		b.WriteString(fmt.Sprintf("  MACD: %.4f  Signal: %.4f  Hist: %+.4f\n", v.MACD.MACD, v.MACD.Signal, v.MACD.Histogram))
	} else {
		b.WriteString("  MACD: n/a\n")
	}
	if v.KDJ != nil {
		b.WriteString(fmt.Sprintf("  KDJ: K=%.1f D=%.1f J=%.1f\n", v.KDJ.K, v.KDJ.D, v.KDJ.J))
	} else {
		b.WriteString("  KDJ: n/a\n")
	}
	return b.String()
}

// FormatPassSummary formats the reply to a manual check.
func FormatPassSummary(report *model.PassReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>检查完成</b> | %s\n\n", report.FinishedAt.Format("2006-01-02 15:04")))
	if len(report.Results) == 0 {
		b.WriteString("关注列表为空\n")
	}
	for _, r := range report.Results {
		sym := html.EscapeString(r.Symbol)
		switch r.Status {
		case model.StatusOK:
			mark := "⚪"
			if r.Alerted {
				mark = "🟢"
			}
			price := ""
			if r.Result != nil {
				price = formatPrice(r.Result.Price)
			}
			b.WriteString(fmt.Sprintf("%s %s %s %s\n", mark, sym, price, labels(r.Triggered)))
		case model.StatusInsufficientData:
			b.WriteString(fmt.Sprintf("🟡 %s 数据不足 (%d 根K线)\n", sym, r.Bars))
		default:
			b.WriteString(fmt.Sprintf("🔴 %s 检查失败: %s\n", sym, html.EscapeString(r.Error)))
		}
	}
	b.WriteString(fmt.Sprintf("\n已发送提醒: %d", report.NotificationsSent))
	if report.NotificationsFailed > 0 {
		b.WriteString(fmt.Sprintf(" (失败 %d)", report.NotificationsFailed))
	}
	return b.String()
}

// FormatWatchlist lists items with their enabled indicators and cached price.
func FormatWatchlist(items []model.WatchlistItem) string {
	var b strings.Builder
	b.WriteString("📋 <b>关注列表</b>\n\n")
	if len(items) == 0 {
		b.WriteString("(空)\n")
		return b.String()
	}
	for _, it := range items {
		enabled := it.Indicators.Enabled()
		names := make([]string, len(enabled))
		for i, ind := range enabled {
			names[i] = string(ind)
		}
		ind := "未选择指标"
		if len(names) > 0 {
			ind = strings.Join(names, "+")
		}
		line := fmt.Sprintf("• %s [%s] %s", html.EscapeString(it.Symbol), it.AssetClass, ind)
		if it.LastQuote != nil {
			line += fmt.Sprintf(" | %s (%+.2f%%)", formatPrice(it.LastQuote.Price), it.LastQuote.ChangePercent)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// FormatHelp lists the supported bot commands.
func FormatHelp() string {
	return "🤖 <b>SignalSentinel</b>\n\n" +
		"/check - 立即检查关注列表\n" +
		"/watchlist - 查看关注列表\n" +
		"/help - 显示帮助"
}

func labels(triggered []model.Indicator) string {
	if len(triggered) == 0 {
		return ""
	}
	out := make([]string, len(triggered))
	for i, ind := range triggered {
		out[i] = string(ind)
	}
	return "[" + strings.Join(out, ",") + "]"
}

// formatPrice keeps small crypto prices readable.
func formatPrice(p float64) string {
	switch {
	case p == 0:
		return "0"
	case p < 0.01:
		return humanize.FormatFloat("#.########", p)
	case p < 1:
		return fmt.Sprintf("%.4f", p)
	default:
		return humanize.FormatFloat("#,###.##", p)
	}
}

func optFloat(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return formatPrice(*v)
}
