// Package email implementa ports.EmailSender sobre AWS SES con plantillas.
package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/jhoicas/Convenios-api/internal/application/ports"
	"github.com/jhoicas/Convenios-api/pkg/config"
	"github.com/jhoicas/Convenios-api/pkg/logger"
)

var (
	_ ports.EmailSender = (*SESSender)(nil)
	_ ports.EmailSender = (*LogSender)(nil)
)

// sesAPI subconjunto del cliente SES que se usa (permite sustituirlo en tests).
type sesAPI interface {
	SendTemplatedEmail(ctx context.Context, in *ses.SendTemplatedEmailInput, optFns ...func(*ses.Options)) (*ses.SendTemplatedEmailOutput, error)
}

// SESSender envía correos con SendTemplatedEmail.
type SESSender struct {
	client sesAPI
	from   string
	log    *logger.Logger
}

// NewSESSender carga la configuración AWS por defecto (env, perfil o rol) en la región dada.
func NewSESSender(ctx context.Context, cfg config.SESConfig, log *logger.Logger) (*SESSender, error) {
	if strings.TrimSpace(cfg.FromEmail) == "" {
		return nil, errors.New("ses: SES_FROM_EMAIL requerido")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("ses: cargar configuración AWS: %w", err)
	}
	return newSESSender(ses.NewFromConfig(awsCfg), cfg.FromEmail, log), nil
}

func newSESSender(client sesAPI, from string, log *logger.Logger) *SESSender {
	if log == nil {
		log = logger.Nop()
	}
	return &SESSender{client: client, from: from, log: log.Named("ses")}
}

// SendTemplated envía la plantilla templateID a "to" con data como TemplateData.
func (s *SESSender) SendTemplated(ctx context.Context, to, templateID string, data map[string]any) error {
	if to == "" || templateID == "" {
		return errors.New("ses: destinatario y plantilla requeridos")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("ses: serializar datos de plantilla: %w", err)
	}
	out, err := s.client.SendTemplatedEmail(ctx, &ses.SendTemplatedEmailInput{
		Source:       aws.String(s.from),
		Destination:  &types.Destination{ToAddresses: []string{to}},
		Template:     aws.String(templateID),
		TemplateData: aws.String(string(raw)),
	})
	if err != nil {
		return fmt.Errorf("ses: envío fallido: %w", err)
	}
	s.log.Debug().
		Str("to", to).
		Str("template", templateID).
		Str("message_id", aws.ToString(out.MessageId)).
		Msg("correo enviado")
	return nil
}

// LogSender registra el correo en el log sin enviarlo (SES deshabilitado, desarrollo).
type LogSender struct {
	log *logger.Logger
}

// NewLogSender construye el sender de solo log.
func NewLogSender(log *logger.Logger) *LogSender {
	if log == nil {
		log = logger.Nop()
	}
	return &LogSender{log: log.Named("email")}
}

// SendTemplated escribe el envío en el log.
func (s *LogSender) SendTemplated(_ context.Context, to, templateID string, data map[string]any) error {
	s.log.Info().
		Str("to", to).
		Str("template", templateID).
		Interface("data", data).
		Msg("correo no enviado: SES deshabilitado")
	return nil
}
