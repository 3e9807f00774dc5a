package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bbernstein/gdtf-builder-go/internal/database/models"
	"github.com/bbernstein/gdtf-builder-go/internal/services/builder"
	"github.com/bbernstein/gdtf-builder-go/internal/services/library"
	"github.com/bbernstein/gdtf-builder-go/internal/services/pubsub"
	"github.com/bbernstein/gdtf-builder-go/internal/services/testutil"
	"github.com/bbernstein/gdtf-builder-go/pkg/gdtf"
)

func setupServer(t *testing.T) (*httptest.Server, *testutil.TestDB, *pubsub.PubSub) {
	t.Helper()

	tdb, cleanup := testutil.SetupTestDB(t)
	t.Cleanup(cleanup)

	ps := pubsub.New()
	lib := library.New()
	svc := builder.NewService(tdb.DraftRepo, tdb.BuildRepo, lib, ps)
	handler := NewHandler(tdb.DraftRepo, tdb.BuildRepo, svc, lib, ps)

	srv := httptest.NewServer(handler.Routes())
	t.Cleanup(srv.Close)
	return srv, tdb, ps
}

func testFixturePayload() gdtf.Fixture {
	return gdtf.Fixture{
		Name:         "API Par",
		Manufacturer: "Acme",
		Modes: []gdtf.Mode{
			{
				Name: "Standard",
				Channels: []gdtf.Channel{
					{Name: "Dimmer"},
					{Name: "Dimmer Fine", FineByte: true},
					{Name: "Red"},
					{Name: "Green"},
					{Name: "Blue"},
				},
			},
		},
	}
}

func doJSON(t *testing.T, method, url string, payload interface{}) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("Failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to %s %s: %v", method, url, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

func TestDraftLifecycle(t *testing.T) {
	srv, _, _ := setupServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/drafts", testFixturePayload())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", resp.StatusCode)
	}
	var created draftResponse
	decodeJSON(t, resp, &created)

	if created.ID == "" {
		t.Error("Expected created draft to have an ID")
	}
	if created.Name != "API Par" {
		t.Errorf("Expected name 'API Par', got %q", created.Name)
	}
	if len(created.Modes) != 1 {
		t.Fatalf("Expected 1 mode, got %d", len(created.Modes))
	}
	if len(created.Modes[0].Channels) != 5 {
		t.Errorf("Expected 5 channels, got %d", len(created.Modes[0].Channels))
	}
	if !created.Modes[0].Channels[1].FineByte {
		t.Error("Expected second channel to keep its fine byte flag")
	}

	resp, err := http.Get(srv.URL + "/api/drafts")
	if err != nil {
		t.Fatalf("Failed to list drafts: %v", err)
	}
	var summaries []draftSummary
	decodeJSON(t, resp, &summaries)
	if len(summaries) != 1 {
		t.Fatalf("Expected 1 draft in list, got %d", len(summaries))
	}
	if summaries[0].ID != created.ID {
		t.Errorf("Expected listed ID %q, got %q", created.ID, summaries[0].ID)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/drafts/"+created.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	var fetched draftResponse
	decodeJSON(t, resp, &fetched)
	if fetched.Name != "API Par" {
		t.Errorf("Expected fetched name 'API Par', got %q", fetched.Name)
	}

	update := testFixturePayload()
	update.Name = "API Par MkII"
	update.Modes = append(update.Modes, gdtf.Mode{
		Name:     "Basic",
		Channels: []gdtf.Channel{{Name: "Dimmer"}},
	})
	resp = doJSON(t, http.MethodPut, srv.URL+"/api/drafts/"+created.ID, update)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200 on update, got %d", resp.StatusCode)
	}
	var updated draftResponse
	decodeJSON(t, resp, &updated)
	if updated.Name != "API Par MkII" {
		t.Errorf("Expected updated name 'API Par MkII', got %q", updated.Name)
	}
	if len(updated.Modes) != 2 {
		t.Fatalf("Expected 2 modes after update, got %d", len(updated.Modes))
	}
	if updated.Modes[1].Name != "Basic" {
		t.Errorf("Expected second mode 'Basic', got %q", updated.Modes[1].Name)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/drafts/"+created.ID+"/duplicate", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected status 201 on duplicate, got %d", resp.StatusCode)
	}
	var dup draftResponse
	decodeJSON(t, resp, &dup)
	if dup.ID == created.ID {
		t.Error("Expected duplicate to have a new ID")
	}
	if dup.Name != "API Par MkII (Copy)" {
		t.Errorf("Expected duplicate name 'API Par MkII (Copy)', got %q", dup.Name)
	}
	if len(dup.Modes) != 2 {
		t.Errorf("Expected duplicate to carry 2 modes, got %d", len(dup.Modes))
	}

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/drafts/"+created.ID, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("Expected status 204 on delete, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/drafts/"+created.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404 after delete, got %d", resp.StatusCode)
	}
	var errResp errorResponse
	decodeJSON(t, resp, &errResp)
	if errResp.Error != "draft not found" {
		t.Errorf("Expected error 'draft not found', got %q", errResp.Error)
	}
}

func TestDraftEndpoints_NotFound(t *testing.T) {
	srv, _, _ := setupServer(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/drafts/missing"},
		{http.MethodPut, "/api/drafts/missing"},
		{http.MethodDelete, "/api/drafts/missing"},
		{http.MethodPost, "/api/drafts/missing/duplicate"},
		{http.MethodPost, "/api/drafts/missing/build"},
	}

	for _, tt := range tests {
		var payload interface{}
		if tt.method == http.MethodPut {
			payload = testFixturePayload()
		}
		resp := doJSON(t, tt.method, srv.URL+tt.path, payload)
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s %s: Expected status 404, got %d", tt.method, tt.path, resp.StatusCode)
		}
	}
}

func TestBuildEndpoint(t *testing.T) {
	srv, tdb, _ := setupServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/build", testFixturePayload())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/octet-stream" {
		t.Errorf("Expected content type application/octet-stream, got %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != `attachment; filename="API_Par.gdtf"` {
		t.Errorf("Unexpected content disposition %q", cd)
	}

	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	xmlText, err := gdtf.ReadDescription(data)
	if err != nil {
		t.Fatalf("Failed to read description from package: %v", err)
	}
	if !strings.Contains(xmlText, `Name="API_Par"`) {
		t.Error("Expected description to contain sanitized fixture name")
	}

	records, err := tdb.BuildRepo.FindAll(context.Background(), 10)
	if err != nil {
		t.Fatalf("Failed to list build records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 build record, got %d", len(records))
	}
	if records[0].Source != models.BuildSourceAdhoc {
		t.Errorf("Expected source %q, got %q", models.BuildSourceAdhoc, records[0].Source)
	}
	if records[0].SizeBytes != len(data) {
		t.Errorf("Expected recorded size %d, got %d", len(data), records[0].SizeBytes)
	}
}

func TestBuildEndpoint_XMLFormat(t *testing.T) {
	srv, tdb, _ := setupServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/build?format=xml", testFixturePayload())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Errorf("Expected XML content type, got %q", ct)
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	if !strings.Contains(string(body), `DataVersion="1.1"`) {
		t.Error("Expected XML body to contain the GDTF data version")
	}

	records, err := tdb.BuildRepo.FindAll(context.Background(), 10)
	if err != nil {
		t.Fatalf("Failed to list build records: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected XML format build to be recorded, got %d records", len(records))
	}
}

func TestBuildEndpoint_WarningsHeader(t *testing.T) {
	srv, _, _ := setupServer(t)

	payload := testFixturePayload()
	payload.Modes = append(payload.Modes, gdtf.Mode{
		Name:     "",
		Channels: []gdtf.Channel{{Name: "Dimmer"}},
	})

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/build", payload)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	header := resp.Header.Get(WarningsHeader)
	if header == "" {
		t.Fatal("Expected warnings header to be set")
	}
	var warnings []string
	if err := json.Unmarshal([]byte(header), &warnings); err != nil {
		t.Fatalf("Failed to decode warnings header: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("Expected 1 warning, got %d", len(warnings))
	}
	if !strings.Contains(warnings[0], "blank name") {
		t.Errorf("Expected blank name warning, got %q", warnings[0])
	}
}

func TestBuildEndpoint_InvalidJSON(t *testing.T) {
	srv, _, _ := setupServer(t)

	resp, err := http.Post(srv.URL+"/api/build", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("Failed to POST: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", resp.StatusCode)
	}
	var errResp errorResponse
	decodeJSON(t, resp, &errResp)
	if errResp.Error == "" {
		t.Error("Expected error message in response")
	}
}

func TestDraftBuildEndpoint(t *testing.T) {
	srv, tdb, _ := setupServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/drafts", testFixturePayload())
	var created draftResponse
	decodeJSON(t, resp, &created)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/drafts/"+created.ID+"/build", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	if _, err := gdtf.ReadDescription(data); err != nil {
		t.Fatalf("Failed to read description from package: %v", err)
	}

	records, err := tdb.BuildRepo.FindByDraftID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Failed to list draft builds: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 build record for draft, got %d", len(records))
	}
	if records[0].Source != models.BuildSourceDraft {
		t.Errorf("Expected source %q, got %q", models.BuildSourceDraft, records[0].Source)
	}
}

func TestPreviewEndpoint(t *testing.T) {
	srv, tdb, _ := setupServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/preview", testFixturePayload())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Errorf("Expected XML content type, got %q", ct)
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	if !strings.HasPrefix(string(body), "<?xml") {
		t.Error("Expected response to start with an XML declaration")
	}

	records, err := tdb.BuildRepo.FindAll(context.Background(), 10)
	if err != nil {
		t.Fatalf("Failed to list build records: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected preview to leave no build records, got %d", len(records))
	}
}

func TestConvertOFLEndpoint(t *testing.T) {
	srv, tdb, _ := setupServer(t)

	oflJSON := `{
		"name": "Mini Spot",
		"categories": ["Moving Head"],
		"availableChannels": {
			"Pan": {"capability": {"type": "Pan"}},
			"Tilt": {"capability": {"type": "Tilt"}}
		},
		"modes": [{"name": "2-channel", "channels": ["Pan", "Tilt"]}]
	}`

	resp, err := http.Post(srv.URL+"/api/ofl/convert?manufacturer=Acme", "application/json", strings.NewReader(oflJSON))
	if err != nil {
		t.Fatalf("Failed to POST: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != `attachment; filename="Mini_Spot.gdtf"` {
		t.Errorf("Unexpected content disposition %q", cd)
	}

	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	xmlText, err := gdtf.ReadDescription(data)
	if err != nil {
		t.Fatalf("Failed to read description from package: %v", err)
	}
	if !strings.Contains(xmlText, `Manufacturer="Acme"`) {
		t.Error("Expected manufacturer from query parameter in description")
	}

	records, err := tdb.BuildRepo.FindAll(context.Background(), 10)
	if err != nil {
		t.Fatalf("Failed to list build records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 build record, got %d", len(records))
	}
	if records[0].Source != models.BuildSourceOFL {
		t.Errorf("Expected source %q, got %q", models.BuildSourceOFL, records[0].Source)
	}
}

func TestConvertOFLEndpoint_Invalid(t *testing.T) {
	srv, _, _ := setupServer(t)

	resp, err := http.Post(srv.URL+"/api/ofl/convert", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("Failed to POST: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", resp.StatusCode)
	}
	var errResp errorResponse
	decodeJSON(t, resp, &errResp)
	if !strings.Contains(errResp.Error, "invalid OFL fixture") {
		t.Errorf("Expected OFL validation error, got %q", errResp.Error)
	}
}

func TestListBuildsEndpoint(t *testing.T) {
	srv, _, _ := setupServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/build", testFixturePayload())
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200 on build, got %d", resp.StatusCode)
	}

	resp, err := http.Get(srv.URL + "/api/builds")
	if err != nil {
		t.Fatalf("Failed to list builds: %v", err)
	}
	var records []buildRecordResponse
	decodeJSON(t, resp, &records)
	if len(records) != 1 {
		t.Fatalf("Expected 1 build record, got %d", len(records))
	}
	if records[0].FixtureName != "API Par" {
		t.Errorf("Expected fixture name 'API Par', got %q", records[0].FixtureName)
	}
	if records[0].FileName != "API_Par.gdtf" {
		t.Errorf("Expected file name 'API_Par.gdtf', got %q", records[0].FileName)
	}
	if records[0].ModeCount != 1 {
		t.Errorf("Expected mode count 1, got %d", records[0].ModeCount)
	}
	// The fine byte widens the dimmer offset instead of adding a channel.
	if records[0].ChannelCount != 4 {
		t.Errorf("Expected channel count 4, got %d", records[0].ChannelCount)
	}

	resp, err = http.Get(srv.URL + "/api/builds?limit=abc")
	if err != nil {
		t.Fatalf("Failed to list builds: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad limit, got %d", resp.StatusCode)
	}
}

func TestReferenceEndpoints(t *testing.T) {
	srv, _, _ := setupServer(t)

	resp, err := http.Get(srv.URL + "/api/reference/attributes")
	if err != nil {
		t.Fatalf("Failed to fetch attributes: %v", err)
	}
	var attrs struct {
		Mappings        []gdtf.Mapping `json:"mappings"`
		WheelAttributes []string       `json:"wheelAttributes"`
	}
	decodeJSON(t, resp, &attrs)
	if len(attrs.Mappings) == 0 {
		t.Error("Expected attribute mappings to be non-empty")
	}
	if len(attrs.WheelAttributes) == 0 {
		t.Error("Expected wheel attributes to be non-empty")
	}

	resp, err = http.Get(srv.URL + "/api/reference/presets")
	if err != nil {
		t.Fatalf("Failed to fetch presets: %v", err)
	}
	var presets []gdtf.SlotPreset
	decodeJSON(t, resp, &presets)
	if len(presets) == 0 {
		t.Error("Expected slot presets to be non-empty")
	}

	resp, err = http.Get(srv.URL + "/api/reference/catalogue")
	if err != nil {
		t.Fatalf("Failed to fetch catalogue: %v", err)
	}
	var catalogue struct {
		Groups     []gdtf.CatalogueGroup `json:"groups"`
		Continuous []string              `json:"continuous"`
	}
	decodeJSON(t, resp, &catalogue)
	if len(catalogue.Groups) == 0 {
		t.Error("Expected catalogue groups to be non-empty")
	}
	if len(catalogue.Continuous) == 0 {
		t.Error("Expected continuous channel list to be non-empty")
	}
}
