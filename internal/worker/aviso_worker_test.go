package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMailer struct {
	enviados []AvisoPayload
	err      error
}

func (m *stubMailer) SendAviso(to, subject, body, pdfPath string) error {
	if m.err != nil {
		return m.err
	}
	m.enviados = append(m.enviados, AvisoPayload{Para: to, Asunto: subject, Cuerpo: body, PDFPath: pdfPath})
	return nil
}

func TestAvisoWorkerEnvia(t *testing.T) {
	mailer := &stubMailer{}
	w := NewAvisoWorker(mailer)

	raw, err := json.Marshal(AvisoPayload{
		Para:   "martina@colegio.cl",
		Asunto: "Préstamo atrasado - Biblioteca CRA",
		Cuerpo: "Hola Martina",
	})
	require.NoError(t, err)

	require.NoError(t, w.Process(context.Background(), raw))
	require.Len(t, mailer.enviados, 1)
	assert.Equal(t, "martina@colegio.cl", mailer.enviados[0].Para)
	assert.Equal(t, "Préstamo atrasado - Biblioteca CRA", mailer.enviados[0].Asunto)
}

func TestAvisoWorkerPayloadInvalido(t *testing.T) {
	mailer := &stubMailer{}
	w := NewAvisoWorker(mailer)

	// Un payload corrupto no debe reintentarse: se descarta sin error.
	err := w.Process(context.Background(), json.RawMessage(`{"para":`))
	assert.NoError(t, err)
	assert.Empty(t, mailer.enviados)
}

func TestAvisoWorkerErrorDelMailer(t *testing.T) {
	fallo := errors.New("smtp: connection refused")
	w := NewAvisoWorker(&stubMailer{err: fallo})

	raw, _ := json.Marshal(AvisoPayload{Para: "martina@colegio.cl"})
	assert.ErrorIs(t, w.Process(context.Background(), raw), fallo)
}
