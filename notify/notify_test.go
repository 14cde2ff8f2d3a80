package notify

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/mail"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront-svc/config"
	"storefront-svc/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type recordingSender struct {
	mu    sync.Mutex
	sent  []Message
	err   error
	panic bool
}

func (s *recordingSender) Send(_ context.Context, msg Message) error {
	if s.panic {
		panic("relay exploded")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.err
}

func testOrder() models.Order {
	productID := int64(5)
	return models.Order{
		ID:      uuid.MustParse("0b3f6f6a-6a3c-4b8e-9d7e-1f2a3b4c5d6e"),
		Contact: models.Contact{FirstName: "Ivan", LastName: "Petrenko", PhoneNumber: "+380501112233", Email: "ivan@example.com"},
		Delivery: models.Delivery{
			Method:           models.DeliveryNovaPoshta,
			RequiresDelivery: true,
			Address:          "Kyiv, Warehouse 1",
		},
		Items: []models.OrderItem{
			{ProductID: &productID, Name: "Lamp", Price: decimal.RequireFromString("169.99"), Quantity: 2},
		},
	}
}

func setupDispatcherTest(t *testing.T, sender EmailSender) *Dispatcher {
	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
	return NewDispatcher(sender, "seller@shop.test", time.Second, logger)
}

func TestDispatcher_SendsSellerAndCustomer(t *testing.T) {
	sender := &recordingSender{}
	d := setupDispatcherTest(t, sender)

	d.OrderPlaced(context.Background(), testOrder())

	require.Len(t, sender.sent, 2)
	seller, customer := sender.sent[0], sender.sent[1]

	assert.Equal(t, "seller@shop.test", seller.To)
	assert.Equal(t, "Новый заказ №0b3f6f6a-6a3c-4b8e-9d7e-1f2a3b4c5d6e", seller.Subject)
	assert.Empty(t, seller.HTML)
	assert.Contains(t, seller.Text, "Lamp — Кол-во: 2, Цена: 339.98")
	assert.Contains(t, seller.Text, "Общая стоимость заказа: 339.98")
	assert.Contains(t, seller.Text, "Имя клиента: IVAN")
	assert.Contains(t, seller.Text, "Фамилия клиента: PETRENKO")
	assert.Contains(t, seller.Text, "Kyiv, Warehouse 1")

	assert.Equal(t, "ivan@example.com", customer.To)
	assert.True(t, strings.HasPrefix(customer.Subject, "Ваш заказ №"))
	assert.Contains(t, customer.HTML, "<td>Lamp</td>")
	assert.NotEmpty(t, customer.Text)
}

func TestDispatcher_GuestWithoutEmail(t *testing.T) {
	sender := &recordingSender{}
	d := setupDispatcherTest(t, sender)

	order := testOrder()
	order.Contact.Email = ""
	order.Delivery = models.Delivery{Method: models.DeliveryPickup}
	d.OrderPlaced(context.Background(), order)

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Text, "Email: —")
	assert.Contains(t, sender.sent[0].Text, "Самовывоз")
}

func TestDispatcher_NoItemsSendsNothing(t *testing.T) {
	sender := &recordingSender{}
	d := setupDispatcherTest(t, sender)

	order := testOrder()
	order.Items = nil
	d.OrderPlaced(context.Background(), order)

	assert.Empty(t, sender.sent)
}

func TestDispatcher_FailuresAreIsolated(t *testing.T) {
	sender := &recordingSender{err: errors.New("relay down")}
	d := setupDispatcherTest(t, sender)

	assert.NotPanics(t, func() { d.OrderPlaced(context.Background(), testOrder()) })
	// the customer message is still attempted after the seller failure
	assert.Len(t, sender.sent, 2)
}

func TestDispatcher_RecoversFromPanickingSender(t *testing.T) {
	d := setupDispatcherTest(t, &recordingSender{panic: true})

	assert.NotPanics(t, func() { d.OrderPlaced(context.Background(), testOrder()) })
}

func TestDispatcher_EscapesHTML(t *testing.T) {
	sender := &recordingSender{}
	d := setupDispatcherTest(t, sender)

	order := testOrder()
	order.Items[0].Name = "<script>x</script>"
	d.OrderPlaced(context.Background(), order)

	require.Len(t, sender.sent, 2)
	assert.NotContains(t, sender.sent[1].HTML, "<script>")
}

func TestBuildMessage_MultipartAlternative(t *testing.T) {
	raw, err := buildMessage("shop@shop.test", Message{
		To:      "ivan@example.com",
		Subject: "Ваш заказ №1",
		Text:    "Привет",
		HTML:    "<p>Привет</p>",
	}, time.Now())
	require.NoError(t, err)

	msg, err := mail.ReadMessage(strings.NewReader(string(raw)))
	require.NoError(t, err)

	subject, err := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "Ваш заказ №1", subject)

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/alternative", mediaType)

	mr := multipart.NewReader(msg.Body, params["boundary"])
	var types []string
	var bodies []string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		body, err := io.ReadAll(part)
		require.NoError(t, err)
		types = append(types, part.Header.Get("Content-Type"))
		bodies = append(bodies, string(body))
	}
	assert.Equal(t, []string{"text/plain; charset=UTF-8", "text/html; charset=UTF-8"}, types)
	assert.Equal(t, []string{"Привет", "<p>Привет</p>"}, bodies)
}

func TestBuildMessage_PlainText(t *testing.T) {
	raw, err := buildMessage("shop@shop.test", Message{To: "seller@shop.test", Subject: "s", Text: "body"}, time.Now())
	require.NoError(t, err)

	msg, err := mail.ReadMessage(strings.NewReader(string(raw)))
	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=UTF-8", msg.Header.Get("Content-Type"))
}

func TestSMTPSender_UnreachableRelay(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, port, _ := net.SplitHostPort(ln.Addr().String())
	ln.Close()

	sender := NewSMTPSender(config.MailConfig{Host: host, Port: port, From: "shop@shop.test", Timeout: time.Second})
	err = sender.Send(context.Background(), Message{To: "a@b.c", Subject: "s", Text: "t"})
	assert.Error(t, err)
}
