package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"cuentas/internal/core"
)

func TestParseWaterForm(t *testing.T) {
	tests := []struct {
		name      string
		form      url.Values
		wantErr   string // field of the expected validation error
		wantMonth core.Month
		wantCents core.Money
		wantDisc  core.Money
		wantState core.Status
	}{
		{
			name:      "numeric month and comma decimal",
			form:      url.Values{"year": {"2024"}, "month": {"3"}, "totalInvoiced": {"30,50"}, "discount": {"5"}, "status": {"Pagado"}},
			wantMonth: 2, wantCents: 3050, wantDisc: 500, wantState: core.Paid,
		},
		{
			name:      "month by name, no discount, default status",
			form:      url.Values{"year": {"2024"}, "month": {"diciembre"}, "totalInvoiced": {"12.345"}},
			wantMonth: 11, wantCents: 1235, wantState: core.Pending,
		},
		{
			name:    "missing year",
			form:    url.Values{"month": {"1"}, "totalInvoiced": {"10"}},
			wantErr: "year",
		},
		{
			name:    "month out of range",
			form:    url.Values{"year": {"2024"}, "month": {"0"}, "totalInvoiced": {"10"}},
			wantErr: "month",
		},
		{
			name:    "missing amount",
			form:    url.Values{"year": {"2024"}, "month": {"1"}},
			wantErr: "totalInvoiced",
		},
		{
			name:    "negative discount",
			form:    url.Values{"year": {"2024"}, "month": {"1"}, "totalInvoiced": {"10"}, "discount": {"-1"}},
			wantErr: "discount",
		},
		{
			name:    "unknown status",
			form:    url.Values{"year": {"2024"}, "month": {"1"}, "totalInvoiced": {"10"}, "status": {"maybe"}},
			wantErr: "status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ParseWaterForm(tt.form)
			if tt.wantErr != "" {
				var verr *core.ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if verr.Field != tt.wantErr {
					t.Errorf("field = %q, want %q", verr.Field, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Period.Month != tt.wantMonth || rec.TotalInvoiced != tt.wantCents || rec.Discount != tt.wantDisc || rec.Status != tt.wantState {
				t.Errorf("got %+v", rec)
			}
		})
	}
}

func TestParseElectricityForm(t *testing.T) {
	form := url.Values{
		"year": {"2025"}, "month": {"2"}, "totalInvoiced": {"80"},
		"kwhConsumption": {"250,5"}, "previousMeter": {"1200"}, "currentMeter": {"1450"},
	}
	rec, err := ParseElectricityForm(form)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.KWhConsumption != 250.5 || rec.PreviousMeter != 1200 || rec.CurrentMeter != 1450 || rec.TotalInvoiced != 8000 {
		t.Errorf("got %+v", rec)
	}

	for _, bad := range []string{"NaN", "Inf", "+Inf", "-inf", "1e400"} {
		f := url.Values{}
		for k, v := range form {
			f[k] = v
		}
		f.Set("kwhConsumption", bad)
		var verr *core.ValidationError
		if _, err := ParseElectricityForm(f); !errors.As(err, &verr) || verr.Field != "kwhConsumption" {
			t.Errorf("kwhConsumption=%q should fail on kwhConsumption, got %v", bad, err)
		}
	}

	form.Set("currentMeter", "14.5")
	var verr *core.ValidationError
	if _, err := ParseElectricityForm(form); !errors.As(err, &verr) || verr.Field != "currentMeter" {
		t.Fatalf("fractional meter should fail on currentMeter, got %v", err)
	}
}

func TestParseInternetForm(t *testing.T) {
	rec, err := ParseInternetForm(url.Values{"year": {"2025"}, "month": {"Enero"}, "monthlyCost": {"40"}, "discount": {"2,5"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.MonthlyCost != 4000 || rec.Discount != 250 || rec.Period.Month != 0 {
		t.Errorf("got %+v", rec)
	}
}

func TestParseElectricityPreviewIsLenient(t *testing.T) {
	in := ParseElectricityPreview(url.Values{"totalInvoiced": {"50"}, "kwhConsumption": {"x"}, "currentMeter": {"10"}})
	if in.TotalInvoiced != 5000 || in.KWhConsumption != 0 || in.CurrentMeter != 10 || in.PreviousMeter != 0 {
		t.Errorf("got %+v", in)
	}
}

func TestParseFixedValuesForm(t *testing.T) {
	fv, err := ParseFixedValuesForm(url.Values{"waterDiscount": {"1,5"}, "internetMonthlyCost": {"39.90"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fv.WaterDiscount != 150 || fv.InternetMonthlyCost != 3990 {
		t.Errorf("got %+v", fv)
	}
	if _, err := ParseFixedValuesForm(url.Values{"waterDiscount": {"1"}}); err == nil {
		t.Fatal("missing internet cost should fail")
	}
}

func TestParseNewUserForm(t *testing.T) {
	in, err := ParseNewUserForm(url.Values{"email": {" ana@example.com "}, "name": {"Ana"}, "password": {" spaced pass "}, "role": {"Edición"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Email != "ana@example.com" || in.Role != core.RoleEditor {
		t.Errorf("got %+v", in)
	}
	if in.Password != " spaced pass " {
		t.Errorf("password must be kept verbatim, got %q", in.Password)
	}

	if _, err := ParseNewUserForm(url.Values{"email": {"ana@example.com"}, "role": {"admin"}}); !errors.Is(err, core.ErrInvalidRole) {
		t.Errorf("expected ErrInvalidRole, got %v", err)
	}
}

func TestParseYearParam(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"year=2023", 2023},
		{"", 7},
		{"year=abc", 7},
		{"year=1999", 7},
		{"year=%202024%20", 2024},
	}
	for _, tt := range tests {
		q, _ := url.ParseQuery(tt.query)
		if got := ParseYearParam(q, 7); got != tt.want {
			t.Errorf("ParseYearParam(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}

func TestParsePeriodParams(t *testing.T) {
	now := time.Date(2025, time.August, 20, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		query string
		want  core.Period
	}{
		{"", core.Period{Year: 2025, Month: 7}},
		{"year=2024&month=2", core.Period{Year: 2024, Month: 1}},
		{"month=marzo", core.Period{Year: 2025, Month: 2}},
		{"month=13", core.Period{Year: 2025, Month: 7}},
	}
	for _, tt := range tests {
		q, _ := url.ParseQuery(tt.query)
		if got := ParsePeriodParams(q, now); got != tt.want {
			t.Errorf("ParsePeriodParams(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestParseFormOrFail(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/agua", strings.NewReader("year=2024"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if resp := ParseFormOrFail(req); resp != nil {
		t.Fatal("valid form should parse")
	}

	bad := httptest.NewRequest(http.MethodPost, "/agua", strings.NewReader("%zz"))
	bad.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := ParseFormOrFail(bad)
	if resp == nil {
		t.Fatal("malformed body should fail")
	}
	rr := httptest.NewRecorder()
	resp.Write(rr)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}
