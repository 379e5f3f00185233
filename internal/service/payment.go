package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/stripe/stripe-go/v82"
)

// IntentCreator — подмножество Stripe-клиента, нужное сервису.
type IntentCreator interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// PaymentService создаёт payment intent у внешнего провайдера.
// Чистый pass-through, локального состояния нет.
type PaymentService interface {
	CreatePaymentIntent(ctx context.Context, price float64) (string, error)
}

type paymentService struct {
	log     *slog.Logger
	intents IntentCreator
}

func NewPaymentService(log *slog.Logger, intents IntentCreator) PaymentService {
	return &paymentService{
		log:     log,
		intents: intents,
	}
}

// CreatePaymentIntent резервирует списание на price*100 минорных единиц в USD
// и возвращает client secret для подтверждения на клиенте.
func (s *paymentService) CreatePaymentIntent(ctx context.Context, price float64) (string, error) {
	const op = "service.PaymentService.CreatePaymentIntent"
	logger := s.log.With(slog.String("op", op), slog.Float64("price", price))

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(int64(math.Round(price * 100))),
		Currency:           stripe.String(string(stripe.CurrencyUSD)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	intent, err := s.intents.New(params)
	if err != nil {
		logger.Error("failed to create payment intent", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to create payment intent: %w", op, err)
	}

	logger.Info("payment intent created")
	return intent.ClientSecret, nil
}
