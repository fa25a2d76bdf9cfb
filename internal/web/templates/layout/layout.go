package layout

import "github.com/mcoot/authsamples/internal/model"

// FlashMessage is a one-shot notice shown on the next page load
type FlashMessage struct {
	Type    string // success, error, info
	Message string
}

// PageData is shared by every page rendered inside Base
type PageData struct {
	Title     string
	Principal *model.Principal // nil when signed out
	Flash     *FlashMessage
}
