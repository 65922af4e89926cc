package cashflow

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cashlens/internal/common"
	"cashlens/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL + "/api"})
}

func TestClientBalance(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/cashflow/balance", r.URL.Path)
		_, _ = w.Write([]byte(`{"total_balance": 1520.75}`))
	})

	balance, err := client.Balance(context.Background())
	require.NoError(t, err)
	assert.True(t, balance.Total.Equal(money("1520.75")))
}

func TestClientDenominations(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cashflow/denominations", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"id": 1, "value": 1000, "quantity": 2},
			{"id": 2, "value": 500, "quantity": 0}
		]`))
	})

	denominations, err := client.Denominations(context.Background())
	require.NoError(t, err)
	require.Len(t, denominations, 2)
	assert.True(t, denominations[0].Value.Equal(money("1000")))
	assert.Equal(t, 2, denominations[0].Quantity)
	assert.Equal(t, 0, denominations[1].Quantity)
}

func TestClientMovements(t *testing.T) {
	t.Run("accepted date layouts", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/cashflow/movements", r.URL.Path)
			_, _ = w.Write([]byte(`[
				{"id": 4, "amount": 500, "type": "ingreso", "origin": "escaneo", "date": "2026-08-27T12:00:00Z"},
				{"id": 3, "amount": 120.5, "type": "gasto", "origin": "manual", "date": "2026-08-26T09:30:00.123456"},
				{"id": 2, "amount": 80, "type": "gasto", "origin": "manual", "date": "2026-08-25T18:00:00"},
				{"id": 1, "amount": 1000, "type": "ingreso", "origin": "manual", "date": "2026-08-24 10:15:00"}
			]`))
		})

		movements, err := client.Movements(context.Background())
		require.NoError(t, err)
		require.Len(t, movements, 4)

		assert.Equal(t, int64(4), movements[0].ID)
		assert.Equal(t, model.MovementIncome, movements[0].Type)
		assert.Equal(t, model.OriginScan, movements[0].Origin)
		assert.Equal(t, 2026, movements[0].Date.Year())

		assert.True(t, movements[1].Amount.Equal(money("120.5")))
		assert.Equal(t, 123456000, movements[1].Date.Nanosecond())
		assert.Equal(t, 25, movements[2].Date.Day())
		assert.Equal(t, 10, movements[3].Date.Hour())
	})

	t.Run("unparseable date is malformed", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[{"id": 1, "amount": 10, "type": "ingreso", "origin": "manual", "date": "ayer"}]`))
		})

		_, err := client.Movements(context.Background())
		assert.ErrorIs(t, err, common.ErrMalformedResponse)
	})
}

func TestClientAddMovement(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/cashflow/movement", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		// The amount crosses the wire as a plain JSON number.
		assert.JSONEq(t, `{"amount": 120.50, "type": "gasto"}`, string(body))

		_, _ = w.Write([]byte(`{"message": "Movimiento registrado", "new_balance": 879.5}`))
	})

	balance, err := client.AddMovement(context.Background(), money("120.50"), model.MovementExpense)
	require.NoError(t, err)
	assert.True(t, balance.Total.Equal(money("879.5")))
}

func TestClientEditMovement(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/cashflow/movements/7", r.URL.Path)

		var body map[string]json.Number
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, json.Number("200"), body["amount"])

		_, _ = w.Write([]byte(`{"id": 7, "amount": 200, "type": "gasto", "origin": "manual", "date": "2026-08-27T12:00:00Z"}`))
	})

	movement, err := client.EditMovement(context.Background(), 7, money("200"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), movement.ID)
	assert.True(t, movement.Amount.Equal(money("200")))
}

func TestClientAddFromScan(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/cashflow/add_from_scan", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"amount": 500}`, string(body))

		_, _ = w.Write([]byte(`{"message": "Billete agregado", "new_balance": 2000}`))
	})

	balance, err := client.AddFromScan(context.Background(), money("500"))
	require.NoError(t, err)
	assert.True(t, balance.Total.Equal(money("2000")))
}

func TestClientErrorMapping(t *testing.T) {
	t.Run("server error with json wrapper", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error": "El monto debe ser positivo"}`))
		})

		_, err := client.Balance(context.Background())
		var serverErr *common.ServerError
		require.ErrorAs(t, err, &serverErr)
		assert.Equal(t, http.StatusBadRequest, serverErr.Status)
		assert.Equal(t, "El monto debe ser positivo", serverErr.Body)
	})

	t.Run("server error with plain body", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down\n"))
		})

		_, err := client.Movements(context.Background())
		var serverErr *common.ServerError
		require.ErrorAs(t, err, &serverErr)
		assert.Equal(t, "upstream down", serverErr.Body)
	})

	t.Run("unreachable backend", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		server.Close()

		client := NewClient(Config{BaseURL: server.URL, Timeout: time.Second})
		_, err := client.Balance(context.Background())
		assert.ErrorIs(t, err, common.ErrConnection)
	})

	t.Run("body that is not json", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html>proxy page</html>`))
		})

		_, err := client.Balance(context.Background())
		assert.ErrorIs(t, err, common.ErrMalformedResponse)
	})
}
