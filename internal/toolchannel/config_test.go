package toolchannel

import "testing"

func TestFromMap_RequiredKeys(t *testing.T) {
	_, err := FromMap(map[string]any{
		"server_port":        float64(8443),
		"software_statement": "x",
	})
	if err == nil {
		t.Fatal("expected error for missing server_host")
	}

	_, err = FromMap(map[string]any{
		"server_host":        "tools.example.com",
		"software_statement": "x",
	})
	if err == nil {
		t.Fatal("expected error for missing server_port")
	}

	_, err = FromMap(map[string]any{
		"server_host": "tools.example.com",
		"server_port": float64(8443),
	})
	if err == nil {
		t.Fatal("expected error for missing software_statement")
	}
}

func TestFromMap_NormalizesScheme(t *testing.T) {
	cfg, err := FromMap(map[string]any{
		"server_host":        "tools.example.com",
		"server_port":        float64(8443),
		"software_statement": "jwt-value",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerHost != "https://tools.example.com" {
		t.Errorf("ServerHost = %q, want https:// prefix added", cfg.ServerHost)
	}
	if cfg.BaseURL() != "https://tools.example.com:8443" {
		t.Errorf("BaseURL() = %q", cfg.BaseURL())
	}
}

func TestFromMap_PreservesExplicitScheme(t *testing.T) {
	cfg, err := FromMap(map[string]any{
		"server_host":        "http://localhost",
		"server_port":        float64(9000),
		"software_statement": "jwt-value",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerHost != "http://localhost" {
		t.Errorf("ServerHost = %q, scheme should be preserved unchanged", cfg.ServerHost)
	}
}

func TestFromMap_IntPort(t *testing.T) {
	cfg, err := FromMap(map[string]any{
		"server_host":        "tools.example.com",
		"server_port":        8443,
		"software_statement": "jwt-value",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerPort != 8443 {
		t.Errorf("ServerPort = %d", cfg.ServerPort)
	}
}

func TestFromYAML_ParsesDocument(t *testing.T) {
	doc := []byte(`
server_host: tools.example.com
server_port: 8443
software_statement: jwt-value
client_context:
  type: openbb
`)
	cfg, err := FromYAML(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerHost != "https://tools.example.com" {
		t.Errorf("ServerHost = %q", cfg.ServerHost)
	}
	if cfg.ServerPort != 8443 {
		t.Errorf("ServerPort = %d", cfg.ServerPort)
	}
	if cfg.ClientContext.Type != "openbb" {
		t.Errorf("ClientContext.Type = %q", cfg.ClientContext.Type)
	}
}

func TestFromYAML_MissingRequiredKey(t *testing.T) {
	_, err := FromYAML([]byte(`server_port: 8443`))
	if err == nil {
		t.Fatal("expected error for missing server_host")
	}
}

func TestFromYAML_InvalidDocument(t *testing.T) {
	_, err := FromYAML([]byte("not: valid: yaml: ["))
	if err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestToolCategoriesHeader(t *testing.T) {
	cfg := &Config{}
	if got := cfg.ToolCategoriesHeader(); got != "financial" {
		t.Errorf("default categories = %q, want %q", got, "financial")
	}

	cfg.ClientContext.Type = "openbb"
	if got := cfg.ToolCategoriesHeader(); got != "financial,openbb" {
		t.Errorf("openbb categories = %q, want %q", got, "financial,openbb")
	}

	cfg.ClientContext.Type = "other"
	if got := cfg.ToolCategoriesHeader(); got != "financial" {
		t.Errorf("unrecognized client type categories = %q, want %q", got, "financial")
	}
}
