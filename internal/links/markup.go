package links

import (
	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

const (
	fallbackLinkLabel   = "link"
	fallbackButtonLabel = "btn"
	fallbackCallback    = "noop"
)

// ConvertMarkup rebuilds an inline keyboard with tracked button URLs
// replaced by redirects. Row structure and button order are preserved
// exactly; nil input yields nil output.
func (rw *Rewriter) ConvertMarkup(markup *telego.InlineKeyboardMarkup) *telego.InlineKeyboardMarkup {
	if markup == nil {
		return nil
	}

	rows := make([][]telego.InlineKeyboardButton, 0, len(markup.InlineKeyboard))
	for _, row := range markup.InlineKeyboard {
		newRow := make([]telego.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			if btn.URL != "" {
				label := btn.Text
				if label == "" {
					label = fallbackLinkLabel
				}
				newRow = append(newRow, tu.InlineKeyboardButton(label).WithURL(rw.resolve(btn.URL)))
				continue
			}
			label := btn.Text
			if label == "" {
				label = fallbackButtonLabel
			}
			data := btn.CallbackData
			if data == "" {
				data = fallbackCallback
			}
			newRow = append(newRow, tu.InlineKeyboardButton(label).WithCallbackData(data))
		}
		rows = append(rows, newRow)
	}

	return &telego.InlineKeyboardMarkup{InlineKeyboard: rows}
}
