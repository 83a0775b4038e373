package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newGatewayServer(t *testing.T, tokenCalls *int, payment map[string]interface{}) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/users/getToken", func(w http.ResponseWriter, r *http.Request) {
		*tokenCalls++
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-key", body["imp_key"])
		assert.Equal(t, "test-secret", body["imp_secret"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 0,
			"response": map[string]interface{}{
				"access_token": "token-abc",
				"expired_at":   time.Now().Add(30 * time.Minute).Unix(),
			},
		})
	})
	mux.HandleFunc("/payments/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token-abc", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code":     0,
			"response": payment,
		})
	})
	return httptest.NewServer(mux)
}

func TestVerify(t *testing.T) {
	tokenCalls := 0
	srv := newGatewayServer(t, &tokenCalls, map[string]interface{}{
		"imp_uid":    "imp_123456",
		"amount":     25000,
		"status":     "paid",
		"pay_method": "card",
	})
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", "test-secret", zap.NewNop())
	report, err := client.Verify(context.Background(), "imp_123456")
	require.NoError(t, err)

	assert.Equal(t, "imp_123456", report.TxnID)
	assert.Equal(t, 25000, report.Amount)
	assert.Equal(t, "paid", report.Status)
	assert.Equal(t, "card", report.Method)
}

func TestVerifyParsesVbankFields(t *testing.T) {
	tokenCalls := 0
	due := time.Now().Add(48 * time.Hour).Truncate(time.Second)
	srv := newGatewayServer(t, &tokenCalls, map[string]interface{}{
		"imp_uid":    "imp_123456",
		"amount":     25000,
		"status":     "ready",
		"pay_method": "vbank",
		"vbank_num":  "110-123-456789",
		"vbank_name": "국민은행",
		"vbank_date": due.Unix(),
	})
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", "test-secret", zap.NewNop())
	report, err := client.Verify(context.Background(), "imp_123456")
	require.NoError(t, err)

	assert.Equal(t, "110-123-456789", report.VbankNum)
	assert.Equal(t, "국민은행", report.VbankName)
	assert.True(t, report.VbankDate.Equal(due))
}

func TestVerifyCachesToken(t *testing.T) {
	tokenCalls := 0
	srv := newGatewayServer(t, &tokenCalls, map[string]interface{}{
		"imp_uid": "imp_123456",
		"amount":  25000,
		"status":  "paid",
	})
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", "test-secret", zap.NewNop())
	_, err := client.Verify(context.Background(), "imp_123456")
	require.NoError(t, err)
	_, err = client.Verify(context.Background(), "imp_123456")
	require.NoError(t, err)

	assert.Equal(t, 1, tokenCalls, "token must be cached until expiry")
}

func TestVerifySurfacesGatewayError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/getToken", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 0,
			"response": map[string]interface{}{
				"access_token": "token-abc",
				"expired_at":   time.Now().Add(30 * time.Minute).Unix(),
			},
		})
	})
	mux.HandleFunc("/payments/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code":    1,
			"message": "존재하지 않는 결제정보입니다.",
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", "test-secret", zap.NewNop())
	_, err := client.Verify(context.Background(), "imp_missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "imp_missing")
}
