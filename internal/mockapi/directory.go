package mockapi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ellp/mockapi/internal/auth"
	"github.com/ellp/mockapi/internal/session"
	"github.com/ellp/mockapi/internal/storage"
	"github.com/ellp/mockapi/internal/util"
)

var (
	// ErrInvalidCredentials indica e-mail ou senha incorretos, sem distinguir qual.
	ErrInvalidCredentials = errors.New("credenciais inválidas")
	// ErrInvalidToken indica token ausente, desconhecido, expirado ou órfão.
	ErrInvalidToken = errors.New("token inválido")
	// ErrNotFound é retornado quando nenhum registro é encontrado.
	ErrNotFound = errors.New("registro não encontrado")
)

const (
	tokenTypeBearer = "bearer"

	// DefaultAccessTTL corresponde ao expires_in 3600 do contrato.
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

// Options reúne as dependências de um Directory.
type Options struct {
	Store      session.Store
	Minter     auth.TokenMinter
	Locator    storage.Locator
	PDFBase    string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

// LoginResult representa o retorno de Authenticate.
type LoginResult struct {
	Tokens  TokenPair
	Usuario Usuario
}

// Directory simula o backend de identidade e recursos em memória.
// Cada instância tem seu próprio estado e suas próprias tabelas de token.
type Directory struct {
	mu    sync.RWMutex
	state *state

	store      session.Store
	minter     auth.TokenMinter
	locator    storage.Locator
	pdfBase    storage.Locator
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// New constrói o diretório já populado pelo seed.
func New(ctx context.Context, opts Options) (*Directory, error) {
	pdfBase, err := storage.NewStaticLocator(opts.PDFBase)
	if err != nil {
		return nil, fmt.Errorf("pdf base: %w", err)
	}

	d := &Directory{
		store:      opts.Store,
		minter:     opts.Minter,
		locator:    opts.Locator,
		pdfBase:    pdfBase,
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
		now:        opts.Now,
	}
	if d.store == nil {
		d.store = session.NewMemoryStore()
	}
	if d.minter == nil {
		d.minter = auth.OpaqueMinter{}
	}
	if d.locator == nil {
		d.locator = pdfBase
	}
	if d.accessTTL <= 0 {
		d.accessTTL = DefaultAccessTTL
	}
	if d.refreshTTL <= 0 {
		d.refreshTTL = DefaultRefreshTTL
	}
	if d.now == nil {
		d.now = util.Now
	}

	st, err := buildState(ctx, d.now(), d.pdfBase)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	d.state = st
	return d, nil
}

// Reset descarta estado e sessões e reconstrói o seed.
func (d *Directory) Reset(ctx context.Context) error {
	st, err := buildState(ctx, d.now(), d.pdfBase)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.store.Flush(ctx); err != nil {
		return fmt.Errorf("flush sessões: %w", err)
	}
	d.state = st
	log.Info().Msg("estado mock reiniciado")
	return nil
}

// Authenticate confere credenciais e emite um novo par de tokens.
func (d *Directory) Authenticate(ctx context.Context, email, password string) (*LoginResult, error) {
	d.mu.RLock()
	user, found := d.findUserByEmail(email)
	d.mu.RUnlock()

	hash := user.senhaHash
	if !found {
		hash = dummyHash()
	}
	ok, err := auth.Verify(password, hash)
	if err != nil {
		log.Warn().Err(err).Msg("login: verificação de senha falhou")
		return nil, ErrInvalidCredentials
	}
	if !found || !ok {
		log.Warn().Msg("login: credenciais inválidas")
		return nil, ErrInvalidCredentials
	}

	tokens, err := d.issuePair(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	current, ok := d.recordLogin(user.ID)
	if !ok {
		// Um Reset concorrente trocou os usuários; o par emitido não vale.
		_ = d.Logout(ctx, tokens.AccessToken, tokens.RefreshToken)
		log.Warn().Msg("login: usuário descartado durante a autenticação")
		return nil, ErrInvalidCredentials
	}

	return &LoginResult{Tokens: tokens, Usuario: current.public()}, nil
}

// recordLogin atualiza ultimo_login do usuário ainda presente no estado.
func (d *Directory) recordLogin(userID string) (usuarioRecord, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.state.users {
		if d.state.users[i].ID == userID {
			d.state.users[i].UltimoLogin = strPtr(util.ISO(d.now()))
			return d.state.users[i], true
		}
	}
	return usuarioRecord{}, false
}

// ResolveUser devolve o usuário atual dono do token de acesso.
func (d *Directory) ResolveUser(ctx context.Context, accessToken string) (Usuario, error) {
	userID, err := d.lookup(ctx, auth.KindAccess, accessToken)
	if err != nil {
		return Usuario{}, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.state.users {
		if u.ID == userID {
			return u.public(), nil
		}
	}
	return Usuario{}, ErrInvalidToken
}

// ResolveSubject devolve o id do dono do token de acesso.
func (d *Directory) ResolveSubject(ctx context.Context, token string) (string, error) {
	user, err := d.ResolveUser(ctx, token)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// Refresh emite um par novo para o dono do refresh token.
// Os tokens anteriores continuam válidos.
func (d *Directory) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	userID, err := d.lookup(ctx, auth.KindRefresh, refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	return d.issuePair(ctx, userID)
}

// Logout revoga o token de acesso e, se informado, o refresh token.
func (d *Directory) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if err := d.store.Delete(ctx, auth.KindAccess, accessToken); err != nil {
		return err
	}
	if refreshToken == "" {
		return nil
	}
	return d.store.Delete(ctx, auth.KindRefresh, refreshToken)
}

func (d *Directory) lookup(ctx context.Context, kind auth.TokenKind, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	if err := d.minter.Check(token, kind); err != nil {
		return "", ErrInvalidToken
	}
	userID, err := d.store.Lookup(ctx, kind, token)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", fmt.Errorf("sessão: %w", err)
	}
	return userID, nil
}

func (d *Directory) issuePair(ctx context.Context, userID string) (TokenPair, error) {
	access, err := d.minter.Mint(userID, auth.KindAccess, d.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := d.minter.Mint(userID, auth.KindRefresh, d.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	if err := d.store.Save(ctx, auth.KindAccess, access, userID, d.accessTTL); err != nil {
		return TokenPair{}, fmt.Errorf("sessão: %w", err)
	}
	if err := d.store.Save(ctx, auth.KindRefresh, refresh, userID, d.refreshTTL); err != nil {
		return TokenPair{}, fmt.Errorf("sessão: %w", err)
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    int(d.accessTTL / time.Second),
	}, nil
}

func (d *Directory) findUserByEmail(email string) (usuarioRecord, bool) {
	for _, u := range d.state.users {
		if u.Email == email {
			return u, true
		}
	}
	return usuarioRecord{}, false
}

// dummyHash iguala o custo de um e-mail desconhecido ao de uma senha errada.
func dummyHash() string {
	hashes, _ := seedPasswordHashes()
	for _, h := range hashes {
		return h
	}
	return ""
}

// ListUsers devolve a projeção resumida de todos os usuários.
func (d *Directory) ListUsers() []UsuarioResumo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]UsuarioResumo, 0, len(d.state.users))
	for _, u := range d.state.users {
		out = append(out, u.resumo())
	}
	return out
}

func (d *Directory) ListTemas() []Tema {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return cloneTemas(d.state.temas)
}

func (d *Directory) ListOficinas() []Oficina {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Oficina, 0, len(d.state.oficinas))
	for _, o := range d.state.oficinas {
		out = append(out, cloneOficina(o))
	}
	return out
}

func (d *Directory) GetOficina(id string) (Oficina, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, o := range d.state.oficinas {
		if o.ID == id {
			return cloneOficina(o), nil
		}
	}
	return Oficina{}, ErrNotFound
}

// DashboardMetrics devolve o snapshot atual, sem recalcular.
func (d *Directory) DashboardMetrics() DashboardMetrics {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state.dashboard
}

// CreateOficina registra a oficina no topo da lista. Temas desconhecidos
// são ignorados e a ocupação é sintética (capacidade - 3).
func (d *Directory) CreateOficina(payload CreateOficinaPayload) Oficina {
	d.mu.Lock()
	defer d.mu.Unlock()

	temas := make([]Tema, 0, len(payload.TemaIDs))
	for _, id := range payload.TemaIDs {
		for _, t := range d.state.temas {
			if t.ID == id {
				temas = append(temas, cloneTema(t))
				break
			}
		}
	}

	capacidade := payload.CapacidadeMaxima
	inscritos := min(capacidade, max(capacidade-3, 0))
	vagas := max(capacidade-inscritos, 0)

	status := StatusPlanejada
	if payload.Status != nil && *payload.Status != "" {
		status = *payload.Status
	}

	now := util.ISO(d.now())
	oficina := Oficina{
		ID:               util.NewID(),
		Titulo:           payload.Titulo,
		Descricao:        clonePtr(payload.Descricao),
		Objetivo:         clonePtr(payload.Objetivo),
		CargaHoraria:     payload.CargaHoraria,
		CapacidadeMaxima: capacidade,
		NumeroAulas:      clonePtr(payload.NumeroAulas),
		DataInicio:       payload.DataInicio,
		DataFim:          payload.DataFim,
		DiasSemana:       clonePtr(payload.DiasSemana),
		Horario:          clonePtr(payload.Horario),
		Local:            payload.Local,
		Status:           status,
		ProfessorID:      payload.ProfessorID,
		Temas:            temas,
		TotalInscritos:   inscritos,
		VagasDisponiveis: vagas,
		TotalConcluintes: 0,
		Lotada:           vagas == 0,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	d.state.oficinas = append([]Oficina{oficina}, d.state.oficinas...)
	// TODO: incrementar o contador que corresponde ao status quando o
	// dashboard passar a ser calculado a partir das oficinas.
	d.state.dashboard.OficinasPlanejadas++
	return cloneOficina(oficina)
}

func (d *Directory) ListCertificados() []Certificado {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Certificado, 0, len(d.state.certificados))
	for _, c := range d.state.certificados {
		out = append(out, cloneCertificado(c.certificado))
	}
	return out
}

func (d *Directory) GetCertificado(id string) (Certificado, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, c := range d.state.certificados {
		if c.certificado.ID == id {
			return cloneCertificado(c.certificado), nil
		}
	}
	return Certificado{}, ErrNotFound
}

// GetValidacao busca a visão pública pelo hash de validação.
func (d *Directory) GetValidacao(hash string) (CertificadoValidacao, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, c := range d.state.certificados {
		if c.certificado.HashValidacao == hash {
			return cloneValidacao(c.validacao), nil
		}
	}
	return CertificadoValidacao{}, ErrNotFound
}

// DownloadInfo monta os dados de download; a URL vem do storage configurado.
func (d *Directory) DownloadInfo(ctx context.Context, id string) (CertificadoDownload, error) {
	d.mu.RLock()
	var (
		rec   certificadoRecord
		found bool
	)
	for _, c := range d.state.certificados {
		if c.certificado.ID == id {
			rec, found = c, true
			break
		}
	}
	d.mu.RUnlock()
	if !found {
		return CertificadoDownload{}, ErrNotFound
	}

	out := CertificadoDownload{
		ArquivoPDFURL:     clonePtr(rec.certificado.ArquivoPDFURL),
		ArquivoPDFNome:    clonePtr(rec.certificado.ArquivoPDFNome),
		HashValidacao:     rec.certificado.HashValidacao,
		CodigoVerificacao: rec.certificado.CodigoVerificacao,
	}
	if rec.pdfKey == "" {
		return out, nil
	}

	url, err := d.locator.Locate(ctx, rec.pdfKey)
	if err != nil {
		return CertificadoDownload{}, fmt.Errorf("storage: %w", err)
	}
	out.ArquivoPDFURL = &url
	return out, nil
}
