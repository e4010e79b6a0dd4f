package monitor

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/shopspring/decimal"

	"pricing-service/internal/models"
	"pricing-service/internal/notify"
)

// ShouldNotify diz se o preço atual dispara o alerta: estritamente abaixo do piso.
func ShouldNotify(current, floor decimal.Decimal) bool {
	return current.LessThan(floor)
}

var alertHTML = template.Must(template.New("alert").Parse(
	`<p>The price of <b>{{.Name}}</b> is now <b>{{.Price}}</b>, below your limit of {{.Floor}}.</p>` +
		`<p><a href="{{.URL}}">{{.URL}}</a></p>`))

// Evaluator decide se um alerta dispara e entrega o aviso ao dono
type Evaluator struct {
	dispatcher notify.Dispatcher
}

// NewEvaluator cria o avaliador que envia pelo dispatcher.
func NewEvaluator(dispatcher notify.Dispatcher) *Evaluator {
	return &Evaluator{dispatcher: dispatcher}
}

// Evaluate compara o preço do item com o piso e envia o aviso quando dispara.
// Item sem preço nunca dispara. Não há supressão de repetidos. O bool diz se
// o alerta disparou, mesmo quando o envio falha.
func (e *Evaluator) Evaluate(ctx context.Context, alert *models.Alert, item *models.Item, user *models.User) (bool, error) {
	if item.Price == nil || !ShouldNotify(*item.Price, alert.PriceFloor) {
		return false, nil
	}

	msg, err := buildMessage(alert, item, user)
	if err != nil {
		return true, err
	}
	if err := e.dispatcher.Send(ctx, msg); err != nil {
		return true, fmt.Errorf("failed to notify %s for alert %s: %w", user.Email, alert.ID, err)
	}
	return true, nil
}

func buildMessage(alert *models.Alert, item *models.Item, user *models.User) (notify.Message, error) {
	data := struct {
		Name, Price, Floor, URL string
	}{
		Name:  alert.Name,
		Price: models.FormatPrice(*item.Price),
		Floor: models.FormatPrice(alert.PriceFloor),
		URL:   item.URL,
	}

	var html bytes.Buffer
	if err := alertHTML.Execute(&html, data); err != nil {
		return notify.Message{}, fmt.Errorf("render alert email: %w", err)
	}

	return notify.Message{
		Recipients: []string{user.Email},
		Subject:    fmt.Sprintf("Price alert: %s is below %s", data.Name, data.Floor),
		Text: fmt.Sprintf("The price of %s is now %s, below your limit of %s.\n%s",
			data.Name, data.Price, data.Floor, data.URL),
		HTML: html.String(),
	}, nil
}
