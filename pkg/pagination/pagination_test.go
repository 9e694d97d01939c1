package pagination

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(query string) Params {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments"+query, nil)
	return FromContext(echo.New().NewContext(req, httptest.NewRecorder()))
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		query string
		want  Params
	}{
		{"", Params{Limit: DefaultLimit, Offset: 0}},
		{"?limit=5&offset=10", Params{Limit: 5, Offset: 10}},
		{"?limit=500", Params{Limit: MaxLimit, Offset: 0}},
		{"?limit=0&offset=-3", Params{Limit: DefaultLimit, Offset: 0}},
		{"?limit=dez&offset=x", Params{Limit: DefaultLimit, Offset: 0}},
		{"?doctor=CRM-1&limit=15", Params{Limit: 15, Offset: 0}},
	}
	for _, tt := range tests {
		if got := paramsFor(tt.query); got != tt.want {
			t.Errorf("%q: got %+v, want %+v", tt.query, got, tt.want)
		}
	}
}

// Fifteen appointments, one per slot of a day, paged five at a time.
func TestResponse_AppointmentPages(t *testing.T) {
	const total = 15
	tests := []struct {
		name    string
		offset  int
		hasMore bool
		links   []Link
	}{
		{
			name: "first", offset: 0, hasMore: true,
			links: []Link{
				{"self", "/api/v1/appointments?offset=0&limit=5"},
				{"next", "/api/v1/appointments?offset=5&limit=5"},
			},
		},
		{
			name: "middle", offset: 5, hasMore: true,
			links: []Link{
				{"self", "/api/v1/appointments?offset=5&limit=5"},
				{"next", "/api/v1/appointments?offset=10&limit=5"},
				{"previous", "/api/v1/appointments?offset=0&limit=5"},
			},
		},
		{
			name: "last", offset: 10, hasMore: false,
			links: []Link{
				{"self", "/api/v1/appointments?offset=10&limit=5"},
				{"previous", "/api/v1/appointments?offset=5&limit=5"},
			},
		},
		{
			name: "past total", offset: 40, hasMore: false,
			links: []Link{
				{"self", "/api/v1/appointments?offset=40&limit=5"},
				{"previous", "/api/v1/appointments?offset=35&limit=5"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewResponse([]string{}, total, 5, tt.offset).WithLinks("/api/v1/appointments")
			if resp.HasMore != tt.hasMore {
				t.Errorf("has_more = %v, want %v", resp.HasMore, tt.hasMore)
			}
			if !reflect.DeepEqual(resp.Links, tt.links) {
				t.Errorf("links = %+v, want %+v", resp.Links, tt.links)
			}
		})
	}
}

func TestParams_PreviousOffsetClamped(t *testing.T) {
	p := Params{Limit: 20, Offset: 7}
	if got := p.PreviousOffset(); got != 0 {
		t.Errorf("PreviousOffset = %d, want 0", got)
	}
	if !p.HasPrevious() {
		t.Error("a non-zero offset has a previous page")
	}
	if p.HasNext(27) {
		t.Error("offset 7 + limit 20 covers a total of 27")
	}
}

func TestResponse_JSONEnvelope(t *testing.T) {
	doctors := []map[string]string{{"license": "CRM-1"}, {"license": "CRM-2"}}
	body, err := json.Marshal(NewResponse(doctors, 2, DefaultLimit, 0).WithLinks("/api/v1/doctors"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got struct {
		Data    []map[string]string `json:"data"`
		Total   int                 `json:"total"`
		Limit   int                 `json:"limit"`
		HasMore bool                `json:"has_more"`
		Links   []Link              `json:"links"`
	}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Data) != 2 || got.Total != 2 || got.Limit != DefaultLimit || got.HasMore {
		t.Errorf("unexpected envelope: %s", body)
	}
	if len(got.Links) != 1 || got.Links[0].Relation != "self" {
		t.Errorf("expected only a self link, got %+v", got.Links)
	}
}
