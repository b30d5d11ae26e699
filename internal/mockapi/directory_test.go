package mockapi

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ellp/mockapi/internal/auth"
	"github.com/ellp/mockapi/internal/session"
	"github.com/ellp/mockapi/internal/storage"
)

func newTestDirectory(t *testing.T, opts Options) *Directory {
	t.Helper()
	d, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func login(t *testing.T, d *Directory, email, password string) *LoginResult {
	t.Helper()
	res, err := d.Authenticate(context.Background(), email, password)
	if err != nil {
		t.Fatalf("Authenticate(%s): %v", email, err)
	}
	return res
}

func TestResetIdempotent(t *testing.T) {
	ctx := context.Background()
	d := newTestDirectory(t, Options{})

	for i := 0; i < 3; i++ {
		if err := d.Reset(ctx); err != nil {
			t.Fatalf("Reset #%d: %v", i, err)
		}

		users := d.ListUsers()
		if len(users) != 4 {
			t.Fatalf("esperava 4 usuários, obteve %d", len(users))
		}
		roles := map[Role]bool{}
		for _, u := range users {
			roles[u.Role] = true
		}
		for _, role := range []Role{RoleAdmin, RoleProfessor, RoleTutor, RoleAluno} {
			if !roles[role] {
				t.Fatalf("role %s ausente", role)
			}
		}

		if got := len(d.ListTemas()); got != 3 {
			t.Fatalf("temas = %d", got)
		}
		if got := len(d.ListOficinas()); got != 3 {
			t.Fatalf("oficinas = %d", got)
		}
		if got := len(d.ListCertificados()); got != 2 {
			t.Fatalf("certificados = %d", got)
		}
		if got := d.DashboardMetrics().OficinasPlanejadas; got != 1 {
			t.Fatalf("oficinas_planejadas = %d", got)
		}
	}
}

func TestResetDiscardsMutationsAndTokens(t *testing.T) {
	ctx := context.Background()
	d := newTestDirectory(t, Options{})

	res := login(t, d, "admin@ellp.test", "admin12345")
	d.CreateOficina(CreateOficinaPayload{Titulo: "Extra", CapacidadeMaxima: 5})

	if err := d.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if got := len(d.ListOficinas()); got != 3 {
		t.Fatalf("oficinas após reset = %d", got)
	}
	if got := d.DashboardMetrics().OficinasPlanejadas; got != 1 {
		t.Fatalf("oficinas_planejadas após reset = %d", got)
	}
	if _, err := d.ResolveUser(ctx, res.Tokens.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token deveria ser descartado no reset, err=%v", err)
	}
}

func TestLoginRoundTrip(t *testing.T) {
	ctx := context.Background()
	d := newTestDirectory(t, Options{})

	res := login(t, d, "admin@ellp.test", "admin12345")
	if res.Tokens.TokenType != "bearer" || res.Tokens.ExpiresIn != 3600 {
		t.Fatalf("par inesperado: %+v", res.Tokens)
	}
	if !strings.HasPrefix(res.Tokens.AccessToken, "mock-access-") || !strings.HasPrefix(res.Tokens.RefreshToken, "mock-refresh-") {
		t.Fatalf("prefixos inesperados: %+v", res.Tokens)
	}

	user, err := d.ResolveUser(ctx, res.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("ResolveUser: %v", err)
	}
	if user.Role != RoleAdmin {
		t.Fatalf("role = %s", user.Role)
	}

	for _, v := range []any{user, res.Usuario, d.ListUsers()} {
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		lower := strings.ToLower(string(raw))
		if strings.Contains(lower, "password") || strings.Contains(lower, "senha") || strings.Contains(lower, "argon2") {
			t.Fatalf("segredo exposto em %s", raw)
		}
	}
}

func TestLoginUpdatesUltimoLogin(t *testing.T) {
	current := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	d := newTestDirectory(t, Options{Now: func() time.Time { return current }})

	current = current.Add(time.Hour)
	res := login(t, d, "prof@ellp.test", "prof12345")
	if res.Usuario.UltimoLogin == nil || *res.Usuario.UltimoLogin != "2024-03-01T13:00:00.000Z" {
		t.Fatalf("ultimo_login = %v", res.Usuario.UltimoLogin)
	}
}

func TestLoginFailure(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	d := newTestDirectory(t, Options{Store: store})

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"senha errada", "admin@ellp.test", "wrong"},
		{"email desconhecido", "ninguem@ellp.test", "admin12345"},
		{"email com caixa diferente", "ADMIN@ellp.test", "admin12345"},
		{"vazio", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := d.Authenticate(ctx, tc.email, tc.password)
			if !errors.Is(err, ErrInvalidCredentials) || res != nil {
				t.Fatalf("esperava ErrInvalidCredentials, obteve %v / %+v", err, res)
			}
		})
	}

	if _, err := d.ResolveUser(ctx, "mock-access-00000000-0000-0000-0000-000000000000"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token inventado resolveu: %v", err)
	}
}

func TestRefreshKeepsOldTokens(t *testing.T) {
	ctx := context.Background()
	d := newTestDirectory(t, Options{})

	first := login(t, d, "tutor@ellp.test", "tutor12345")
	second, err := d.Refresh(ctx, first.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if second.AccessToken == first.Tokens.AccessToken || second.RefreshToken == first.Tokens.RefreshToken {
		t.Fatal("refresh deveria emitir um par novo")
	}

	for _, token := range []string{first.Tokens.AccessToken, second.AccessToken} {
		user, err := d.ResolveUser(ctx, token)
		if err != nil {
			t.Fatalf("ResolveUser(%s): %v", token, err)
		}
		if user.ID != first.Usuario.ID {
			t.Fatalf("usuário diferente: %s", user.ID)
		}
	}

	if _, err := d.Refresh(ctx, first.Tokens.RefreshToken); err != nil {
		t.Fatalf("refresh antigo deveria continuar válido: %v", err)
	}
	if _, err := d.Refresh(ctx, "mock-refresh-desconhecido"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("esperava ErrInvalidToken, obteve %v", err)
	}
	if _, err := d.Refresh(ctx, first.Tokens.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token não deveria servir de refresh: %v", err)
	}
}

func TestLogoutRevokesTokens(t *testing.T) {
	ctx := context.Background()
	d := newTestDirectory(t, Options{})

	res := login(t, d, "aluno@ellp.test", "aluno12345")
	if err := d.Logout(ctx, res.Tokens.AccessToken, res.Tokens.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := d.ResolveUser(ctx, res.Tokens.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token deveria estar revogado: %v", err)
	}
	if _, err := d.Refresh(ctx, res.Tokens.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token deveria estar revogado: %v", err)
	}
}

func TestTokenExpiry(t *testing.T) {
	ctx := context.Background()
	current := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store := session.NewMemoryStoreWithClock(func() time.Time { return current })
	d := newTestDirectory(t, Options{Store: store, AccessTTL: time.Minute})

	res := login(t, d, "admin@ellp.test", "admin12345")
	if res.Tokens.ExpiresIn != 60 {
		t.Fatalf("expires_in = %d", res.Tokens.ExpiresIn)
	}
	current = current.Add(2 * time.Minute)
	if _, err := d.ResolveUser(ctx, res.Tokens.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token expirado resolveu: %v", err)
	}
	if _, err := d.Refresh(ctx, res.Tokens.RefreshToken); err != nil {
		t.Fatalf("refresh ainda válido: %v", err)
	}
}

func TestOrphanedToken(t *testing.T) {
	ctx := context.Background()
	d := newTestDirectory(t, Options{})

	res := login(t, d, "aluno@ellp.test", "aluno12345")

	d.mu.Lock()
	users := d.state.users[:0]
	for _, u := range d.state.users {
		if u.ID != res.Usuario.ID {
			users = append(users, u)
		}
	}
	d.state.users = users
	d.mu.Unlock()

	if _, err := d.ResolveUser(ctx, res.Tokens.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token órfão resolveu: %v", err)
	}
}

func TestJWTMinter(t *testing.T) {
	ctx := context.Background()
	minter := auth.NewJWTMinter(auth.NewJWTManager(strings.Repeat("s", 32)))
	d := newTestDirectory(t, Options{Minter: minter})

	res := login(t, d, "prof@ellp.test", "prof12345")
	if strings.Count(res.Tokens.AccessToken, ".") != 2 {
		t.Fatalf("esperava JWT, obteve %s", res.Tokens.AccessToken)
	}
	user, err := d.ResolveUser(ctx, res.Tokens.AccessToken)
	if err != nil || user.Role != RoleProfessor {
		t.Fatalf("ResolveUser: %v %+v", err, user)
	}
	if _, err := d.ResolveUser(ctx, res.Tokens.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh JWT não deveria valer como access: %v", err)
	}
}

func TestCreateOficinaInvariants(t *testing.T) {
	d := newTestDirectory(t, Options{})
	temas := d.ListTemas()

	for _, n := range []int{0, 1, 2, 3, 4, 20} {
		before := d.DashboardMetrics().OficinasPlanejadas
		status := StatusEmAndamento
		o := d.CreateOficina(CreateOficinaPayload{
			Titulo:           "Oficina",
			CapacidadeMaxima: n,
			Status:           &status,
			TemaIDs:          []string{temas[0].ID, "desconhecido", temas[2].ID},
		})

		if o.VagasDisponiveis != n-o.TotalInscritos {
			t.Fatalf("N=%d: vagas=%d inscritos=%d", n, o.VagasDisponiveis, o.TotalInscritos)
		}
		if o.Lotada != (o.VagasDisponiveis == 0) {
			t.Fatalf("N=%d: lotada=%v vagas=%d", n, o.Lotada, o.VagasDisponiveis)
		}
		if want := max(n-3, 0); o.TotalInscritos != want {
			t.Fatalf("N=%d: inscritos=%d, esperado %d", n, o.TotalInscritos, want)
		}
		if len(o.Temas) != 2 || o.Temas[0].ID != temas[0].ID || o.Temas[1].ID != temas[2].ID {
			t.Fatalf("N=%d: temas inesperados %+v", n, o.Temas)
		}
		if o.Status != StatusEmAndamento {
			t.Fatalf("status = %s", o.Status)
		}
		if got := d.ListOficinas()[0].ID; got != o.ID {
			t.Fatalf("oficina nova deveria ficar no topo, topo=%s", got)
		}
		if got := d.DashboardMetrics().OficinasPlanejadas; got != before+1 {
			t.Fatalf("oficinas_planejadas = %d, esperado %d", got, before+1)
		}
	}
}

func TestCreateOficinaDefaults(t *testing.T) {
	d := newTestDirectory(t, Options{})

	o := d.CreateOficina(CreateOficinaPayload{Titulo: "Sem status", CapacidadeMaxima: 10})
	if o.Status != StatusPlanejada {
		t.Fatalf("status padrão = %s", o.Status)
	}
	if o.Temas == nil || len(o.Temas) != 0 {
		t.Fatalf("temas deveria ser lista vazia, obteve %#v", o.Temas)
	}
	if o.ID == "" || o.CreatedAt == "" || o.CreatedAt != o.UpdatedAt {
		t.Fatalf("metadados inesperados: %+v", o)
	}

	got, err := d.GetOficina(o.ID)
	if err != nil || got.Titulo != "Sem status" {
		t.Fatalf("GetOficina: %v %+v", err, got)
	}
}

func TestListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	d := newTestDirectory(t, Options{})

	oficinas := d.ListOficinas()
	oficinas[0].Titulo = "alterado"
	oficinas[0].Temas[0].Nome = "alterado"
	*oficinas[0].Temas[0].Descricao = "alterada"
	*oficinas[0].Descricao = "alterada"
	*oficinas[0].NumeroAulas = 99

	got := d.ListOficinas()[0]
	if got.Titulo == "alterado" || got.Temas[0].Nome == "alterado" || *got.Temas[0].Descricao == "alterada" {
		t.Fatalf("ListOficinas expôs o estado interno: %+v", got)
	}
	if *got.Descricao == "alterada" || *got.NumeroAulas == 99 {
		t.Fatalf("ponteiros da oficina compartilhados: %+v", got)
	}

	one, err := d.GetOficina(got.ID)
	if err != nil {
		t.Fatalf("GetOficina: %v", err)
	}
	one.Temas[0].Nome = "alterado"
	*one.Horario = "alterado"
	if again, _ := d.GetOficina(got.ID); again.Temas[0].Nome == "alterado" || *again.Horario == "alterado" {
		t.Fatal("GetOficina expôs o estado interno")
	}

	temas := d.ListTemas()
	temas[0].Nome = "alterado"
	*temas[0].Descricao = "alterada"
	if tema := d.ListTemas()[0]; tema.Nome == "alterado" || *tema.Descricao == "alterada" {
		t.Fatal("ListTemas expôs o estado interno")
	}

	certs := d.ListCertificados()
	original := *certs[0].ArquivoPDFURL
	*certs[0].ArquivoPDFURL = "https://evil/x.pdf"
	*certs[0].PercentualPresencaCertificado = 1
	cert := d.ListCertificados()[0]
	if *cert.ArquivoPDFURL != original || *cert.PercentualPresencaCertificado != 92.5 {
		t.Fatalf("ListCertificados expôs o estado interno: %+v", cert)
	}

	byID, _ := d.GetCertificado(cert.ID)
	*byID.ArquivoPDFNome = "x.pdf"
	*byID.CargaHorariaCertificada = 0
	if again, _ := d.GetCertificado(cert.ID); *again.ArquivoPDFNome == "x.pdf" || *again.CargaHorariaCertificada == 0 {
		t.Fatal("GetCertificado expôs o estado interno")
	}

	v, _ := d.GetValidacao(cert.HashValidacao)
	*v.ArquivoPDFURL = "https://evil/x.pdf"
	*v.PercentualPresencaCertificado = 1
	if again, _ := d.GetValidacao(cert.HashValidacao); *again.ArquivoPDFURL != original || *again.PercentualPresencaCertificado != 92.5 {
		t.Fatal("GetValidacao expôs o estado interno")
	}

	info, _ := d.DownloadInfo(ctx, cert.ID)
	*info.ArquivoPDFNome = "x.pdf"
	if again, _ := d.GetCertificado(cert.ID); *again.ArquivoPDFNome == "x.pdf" {
		t.Fatal("DownloadInfo expôs o estado interno")
	}
}

func TestCreateOficinaDoesNotAliasPayload(t *testing.T) {
	d := newTestDirectory(t, Options{})
	tema := d.ListTemas()[0]

	descricao := "original"
	created := d.CreateOficina(CreateOficinaPayload{
		Titulo:    "Nova",
		Descricao: &descricao,
		TemaIDs:   []string{tema.ID},
	})
	descricao = "alterada"
	created.Temas[0].Nome = "alterado"

	got, err := d.GetOficina(created.ID)
	if err != nil {
		t.Fatalf("GetOficina: %v", err)
	}
	if *got.Descricao != "original" || got.Temas[0].Nome != tema.Nome {
		t.Fatalf("oficina compartilha memória com o chamador: %+v", got)
	}
	if d.ListTemas()[0].Nome != tema.Nome {
		t.Fatal("tema do catálogo alterado pela oficina devolvida")
	}
}

func TestRecordLoginAfterReset(t *testing.T) {
	ctx := context.Background()
	d := newTestDirectory(t, Options{})

	res := login(t, d, "admin@ellp.test", "admin12345")
	if err := d.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	if _, ok := d.recordLogin(res.Usuario.ID); ok {
		t.Fatal("usuário anterior ao reset não deveria ser encontrado")
	}
	for _, u := range d.ListUsers() {
		if u.ID == res.Usuario.ID {
			t.Fatal("id anterior ao reset reapareceu")
		}
	}

	fresh := login(t, d, "admin@ellp.test", "admin12345")
	if fresh.Usuario.ID == res.Usuario.ID {
		t.Fatal("login após reset deveria usar o usuário novo")
	}
}

func TestCertificadoValidationConsistency(t *testing.T) {
	d := newTestDirectory(t, Options{})

	for _, c := range d.ListCertificados() {
		v, err := d.GetValidacao(c.HashValidacao)
		if err != nil {
			t.Fatalf("GetValidacao(%s): %v", c.HashValidacao, err)
		}
		if v.Revogado != c.Revogado || v.HashValidacao != c.HashValidacao {
			t.Fatalf("validação divergente: %+v vs %+v", v, c)
		}
		if v.Valido != !c.Revogado {
			t.Fatalf("valido=%v revogado=%v", v.Valido, c.Revogado)
		}
		if !strings.HasPrefix(c.HashValidacao, "ellp-hash-") || c.HashValidacao != "ellp-hash-"+c.ID[:8] {
			t.Fatalf("hash inesperado: %s", c.HashValidacao)
		}

		got, err := d.GetCertificado(c.ID)
		if err != nil || got.ID != c.ID {
			t.Fatalf("GetCertificado: %v", err)
		}
	}
}

func TestUnknownLookups(t *testing.T) {
	ctx := context.Background()
	d := newTestDirectory(t, Options{})

	if _, err := d.GetCertificado("nonexistent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetCertificado: %v", err)
	}
	if _, err := d.GetValidacao("nonexistent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetValidacao: %v", err)
	}
	if _, err := d.GetOficina("nonexistent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetOficina: %v", err)
	}
	if _, err := d.DownloadInfo(ctx, "nonexistent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("DownloadInfo: %v", err)
	}
	if _, err := d.ResolveUser(ctx, ""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("ResolveUser vazio: %v", err)
	}
}

type stubLocator struct {
	keys []string
	err  error
}

func (s *stubLocator) Locate(_ context.Context, key string) (string, error) {
	s.keys = append(s.keys, key)
	if s.err != nil {
		return "", s.err
	}
	return "https://signed.example/" + key + "?sig=1", nil
}

func TestDownloadInfo(t *testing.T) {
	ctx := context.Background()

	t.Run("static", func(t *testing.T) {
		d := newTestDirectory(t, Options{})
		cert := d.ListCertificados()[0]

		info, err := d.DownloadInfo(ctx, cert.ID)
		if err != nil {
			t.Fatalf("DownloadInfo: %v", err)
		}
		want := storage.DefaultBaseURL + "/" + cert.ID + ".pdf"
		if info.ArquivoPDFURL == nil || *info.ArquivoPDFURL != want {
			t.Fatalf("url = %v, esperado %s", info.ArquivoPDFURL, want)
		}
		if *cert.ArquivoPDFURL != want {
			t.Fatalf("url do certificado = %s", *cert.ArquivoPDFURL)
		}
		if info.HashValidacao != cert.HashValidacao || info.CodigoVerificacao != "ELLPPW-12345" {
			t.Fatalf("download inesperado: %+v", info)
		}
	})

	t.Run("locator", func(t *testing.T) {
		loc := &stubLocator{}
		d := newTestDirectory(t, Options{Locator: loc})
		cert := d.ListCertificados()[0]

		info, err := d.DownloadInfo(ctx, cert.ID)
		if err != nil {
			t.Fatalf("DownloadInfo: %v", err)
		}
		if *info.ArquivoPDFURL != "https://signed.example/"+cert.ID+".pdf?sig=1" {
			t.Fatalf("url = %s", *info.ArquivoPDFURL)
		}
	})

	t.Run("erro do storage", func(t *testing.T) {
		loc := &stubLocator{err: errors.New("boom")}
		d := newTestDirectory(t, Options{Locator: loc})
		cert := d.ListCertificados()[0]

		if _, err := d.DownloadInfo(ctx, cert.ID); err == nil || errors.Is(err, ErrNotFound) {
			t.Fatalf("esperava erro de storage, obteve %v", err)
		}
	})
}

func TestIndependentDirectories(t *testing.T) {
	ctx := context.Background()
	a := newTestDirectory(t, Options{})
	b := newTestDirectory(t, Options{})

	res := login(t, a, "admin@ellp.test", "admin12345")
	a.CreateOficina(CreateOficinaPayload{Titulo: "Só em A", CapacidadeMaxima: 4})

	if len(b.ListOficinas()) != 3 {
		t.Fatal("criação em A vazou para B")
	}
	if _, err := b.ResolveUser(ctx, res.Tokens.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token de A resolveu em B: %v", err)
	}
}
