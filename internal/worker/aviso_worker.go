package worker

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Mailer abstracts the SMTP client so the worker can be tested without a server.
type Mailer interface {
	SendAviso(to, subject, body, pdfPath string) error
}

// AvisoPayload is the body of an "aviso" job: an email notice to a user,
// typically an overdue-loan reminder or a reservation-ready notice.
type AvisoPayload struct {
	Para    string `json:"para"`
	Asunto  string `json:"asunto"`
	Cuerpo  string `json:"cuerpo"`
	PDFPath string `json:"pdfPath,omitempty"`
}

// AvisoWorker delivers queued email notices.
type AvisoWorker struct {
	mailer Mailer
}

func NewAvisoWorker(mailer Mailer) *AvisoWorker {
	return &AvisoWorker{mailer: mailer}
}

func (w *AvisoWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload AvisoPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("invalid aviso payload")
		return nil // malformed payload, retrying will not help
	}
	if err := w.mailer.SendAviso(payload.Para, payload.Asunto, payload.Cuerpo, payload.PDFPath); err != nil {
		return err
	}
	log.Info().Str("para", payload.Para).Str("asunto", payload.Asunto).Msg("aviso enviado")
	return nil
}
