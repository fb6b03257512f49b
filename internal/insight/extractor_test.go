package insight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lookout/internal/metrics"
	"github.com/sells-group/lookout/internal/model"
)

func testRules(t *testing.T) *Rules {
	t.Helper()
	rules, err := DefaultRules()
	require.NoError(t, err)
	return rules
}

func testMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestFold(t *testing.T) {
	assert.Equal(t, "missao visao valores", Fold("Missão Visão Valores"))
	assert.Equal(t, "servicos e solucoes", Fold("Serviços e Soluções"))
	assert.Equal(t, "plain text", Fold("plain text"))
}

func TestDefaultRules(t *testing.T) {
	rules := testRules(t)
	assert.Contains(t, rules.Institutional, "missao")
	assert.Contains(t, rules.Services, "servicos")
	assert.Contains(t, rules.ComplaintDomains, "reclameaqui.com.br")
	assert.Equal(t, "linkedin.com", rules.SocialDomains["linkedin"])
}

func TestDerive_InstitutionalWithDiacritics(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<h1>Sobre nós</h1>
		<p>Nossa missão é entregar qualidade. Nossa visão é liderar o mercado.</p>
	</body></html>`)

	insights := Derive(doc, testRules(t), "https://acme.com.br/sobre")
	require.Len(t, insights, 1)
	assert.Equal(t, model.InsightInstitutional, insights[0].Kind)
	assert.Contains(t, insights[0].Content, "missao")
	assert.Equal(t, "https://acme.com.br/sobre", insights[0].Source)
}

func TestDerive_InstitutionalWithoutDiacritics(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>nossa missao e visao</p></body></html>`)
	insights := Derive(doc, testRules(t), "u")
	require.Len(t, insights, 1)
	assert.Equal(t, model.InsightInstitutional, insights[0].Kind)
}

func TestDerive_Services(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>Oferecemos soluções completas em TI.</p></body></html>`)
	insights := Derive(doc, testRules(t), "u")
	require.Len(t, insights, 1)
	assert.Equal(t, model.InsightServices, insights[0].Kind)
	assert.Contains(t, insights[0].Content, "solucoes")
}

func TestDerive_ExcerptWindow(t *testing.T) {
	padding := strings.Repeat("x ", 200)
	doc := parseDoc(t, `<html><body><p>`+padding+`nossa missão é crescer `+padding+`</p></body></html>`)

	insights := Derive(doc, testRules(t), "u")
	require.Len(t, insights, 1)
	content := insights[0].Content
	assert.Contains(t, content, "missao")
	assert.True(t, strings.HasSuffix(content, "..."))
	// Window is 100 before + 300 after the hit, plus the ellipsis.
	assert.LessOrEqual(t, len(content), excerptBefore+excerptAfter+3)
}

func TestDerive_SocialLinks(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<a href="https://linkedin.com/company/acme">LinkedIn</a>
		<a href="https://instagram.com/acme">Instagram</a>
		<a href="https://facebook.com/acme">Facebook</a>
	</body></html>`)

	insights := Derive(doc, testRules(t), "u")
	require.Len(t, insights, 1)
	assert.Equal(t, model.InsightSocialLinks, insights[0].Kind)
	assert.Equal(t, map[string]string{
		"linkedin":  "https://linkedin.com/company/acme",
		"instagram": "https://instagram.com/acme",
		"facebook":  "https://facebook.com/acme",
	}, insights[0].Details)
}

func TestDerive_SocialLinkExclusion(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<a href="https://linkedin.com/company/dun-&-bradstreet/acme">Aggregator</a>
	</body></html>`)

	insights := Derive(doc, testRules(t), "u")
	assert.Empty(t, insights)
}

func TestDerive_ComplaintVocabulary(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>Tive um problema com a entrega e registrei uma reclamação.</p></body></html>`)
	insights := Derive(doc, testRules(t), "https://forum.example.com/topico")

	require.Len(t, insights, 1)
	assert.Equal(t, model.InsightReputation, insights[0].Kind)
	assert.Equal(t, "https://forum.example.com/topico", insights[0].Source)
}

func TestDerive_ComplaintSiteAnchor(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<a href="https://www.reclameaqui.com.br/empresa/acme/">Perfil da empresa</a>
	</body></html>`)

	insights := Derive(doc, testRules(t), "u")
	require.Len(t, insights, 1)
	assert.Equal(t, model.InsightReputation, insights[0].Kind)
	assert.Equal(t, "https://www.reclameaqui.com.br/empresa/acme/", insights[0].Source)
	assert.Contains(t, insights[0].Content, "reclameaqui.com.br")
}

func TestDerive_NothingFound(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>Página sem nada de interessante.</p></body></html>`)
	assert.Empty(t, Derive(doc, testRules(t), "u"))
}

func TestPageExtractor_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><p>Oferecemos serviços de consultoria.</p></body></html>`))
	}))
	defer srv.Close()

	e := NewPageExtractor(testRules(t), testMetrics(), 0)
	insights := e.ExtractFromPage(context.Background(), srv.URL)
	require.Len(t, insights, 1)
	assert.Equal(t, model.InsightServices, insights[0].Kind)
}

func TestPageExtractor_FailureDegradesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused

	e := NewPageExtractor(testRules(t), testMetrics(), 0)
	insights := e.ExtractFromPage(context.Background(), srv.URL)
	assert.Empty(t, insights)
}
