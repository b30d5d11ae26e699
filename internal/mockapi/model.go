package mockapi

// Role identifica o perfil do usuário.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleProfessor Role = "professor"
	RoleTutor     Role = "tutor"
	RoleAluno     Role = "aluno"
)

// OficinaStatus é o ciclo de vida de uma oficina.
type OficinaStatus string

const (
	StatusPlanejada         OficinaStatus = "planejada"
	StatusInscricoesAbertas OficinaStatus = "inscricoes_abertas"
	StatusEmAndamento       OficinaStatus = "em_andamento"
	StatusConcluida         OficinaStatus = "concluida"
	StatusCancelada         OficinaStatus = "cancelada"
)

// Valid informa se o status pertence ao conjunto conhecido.
func (s OficinaStatus) Valid() bool {
	switch s {
	case StatusPlanejada, StatusInscricoesAbertas, StatusEmAndamento, StatusConcluida, StatusCancelada:
		return true
	}
	return false
}

// CertificadoTipo distingue certificado de aluno e de tutor.
type CertificadoTipo string

const (
	CertificadoConclusaoAluno    CertificadoTipo = "conclusao_aluno"
	CertificadoParticipacaoTutor CertificadoTipo = "participacao_tutor"
)

// TokenPair é o par devolvido por login e refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// Usuario é a projeção pública de um usuário (sem senha).
type Usuario struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	Role         Role    `json:"role"`
	NomeCompleto string  `json:"nome_completo"`
	Ativo        bool    `json:"ativo"`
	UltimoLogin  *string `json:"ultimo_login"`
}

// UsuarioResumo é o item da listagem de usuários.
type UsuarioResumo struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	NomeCompleto string `json:"nome_completo"`
	Ativo        bool   `json:"ativo"`
}

type usuarioRecord struct {
	Usuario
	senhaHash string
}

func (u usuarioRecord) public() Usuario {
	out := u.Usuario
	if u.UltimoLogin != nil {
		v := *u.UltimoLogin
		out.UltimoLogin = &v
	}
	return out
}

func (u usuarioRecord) resumo() UsuarioResumo {
	return UsuarioResumo{
		ID:           u.ID,
		Email:        u.Email,
		Role:         u.Role,
		NomeCompleto: u.NomeCompleto,
		Ativo:        u.Ativo,
	}
}

type Tema struct {
	ID        string  `json:"id"`
	Nome      string  `json:"nome"`
	Descricao *string `json:"descricao"`
	Ativo     bool    `json:"ativo"`
}

type Oficina struct {
	ID               string        `json:"id"`
	Titulo           string        `json:"titulo"`
	Descricao        *string       `json:"descricao"`
	Objetivo         *string       `json:"objetivo"`
	CargaHoraria     int           `json:"carga_horaria"`
	CapacidadeMaxima int           `json:"capacidade_maxima"`
	NumeroAulas      *int          `json:"numero_aulas"`
	DataInicio       string        `json:"data_inicio"`
	DataFim          string        `json:"data_fim"`
	DiasSemana       *string       `json:"dias_semana"`
	Horario          *string       `json:"horario"`
	Local            string        `json:"local"`
	Status           OficinaStatus `json:"status"`
	ProfessorID      string        `json:"professor_id"`
	Temas            []Tema        `json:"temas"`
	TotalInscritos   int           `json:"total_inscritos"`
	VagasDisponiveis int           `json:"vagas_disponiveis"`
	TotalConcluintes int           `json:"total_concluintes"`
	Lotada           bool          `json:"lotada"`
	CreatedAt        string        `json:"created_at"`
	UpdatedAt        string        `json:"updated_at"`
}

// CreateOficinaPayload é o corpo de POST /oficinas.
type CreateOficinaPayload struct {
	Titulo           string         `json:"titulo"`
	Descricao        *string        `json:"descricao"`
	Objetivo         *string        `json:"objetivo"`
	CargaHoraria     int            `json:"carga_horaria"`
	CapacidadeMaxima int            `json:"capacidade_maxima"`
	NumeroAulas      *int           `json:"numero_aulas"`
	DataInicio       string         `json:"data_inicio"`
	DataFim          string         `json:"data_fim"`
	Local            string         `json:"local"`
	DiasSemana       *string        `json:"dias_semana"`
	Horario          *string        `json:"horario"`
	Status           *OficinaStatus `json:"status"`
	ProfessorID      string         `json:"professor_id"`
	TemaIDs          []string       `json:"tema_ids"`
}

type Certificado struct {
	ID                            string          `json:"id"`
	Tipo                          CertificadoTipo `json:"tipo"`
	InscricaoID                   *string         `json:"inscricao_id"`
	TutorID                       *string         `json:"tutor_id"`
	OficinaID                     string          `json:"oficina_id"`
	HashValidacao                 string          `json:"hash_validacao"`
	CodigoVerificacao             string          `json:"codigo_verificacao"`
	ArquivoPDFURL                 *string         `json:"arquivo_pdf_url"`
	ArquivoPDFNome                *string         `json:"arquivo_pdf_nome"`
	DataEmissao                   string          `json:"data_emissao"`
	CargaHorariaCertificada       *int            `json:"carga_horaria_certificada"`
	PercentualPresencaCertificado *float64        `json:"percentual_presenca_certificado"`
	Revogado                      bool            `json:"revogado"`
}

// CertificadoValidacao é a visão pública usada na validação por hash.
type CertificadoValidacao struct {
	HashValidacao                 string          `json:"hash_validacao"`
	CodigoVerificacao             string          `json:"codigo_verificacao"`
	Tipo                          CertificadoTipo `json:"tipo"`
	Valido                        bool            `json:"valido"`
	ParticipanteNome              string          `json:"participante_nome"`
	ParticipanteTipo              string          `json:"participante_tipo"`
	OficinaID                     string          `json:"oficina_id"`
	OficinaTitulo                 string          `json:"oficina_titulo"`
	DataEmissao                   string          `json:"data_emissao"`
	CargaHorariaCertificada       *int            `json:"carga_horaria_certificada"`
	PercentualPresencaCertificado *float64        `json:"percentual_presenca_certificado"`
	Revogado                      bool            `json:"revogado"`
	MotivoRevogacao               *string         `json:"motivo_revogacao"`
	ArquivoPDFURL                 *string         `json:"arquivo_pdf_url"`
	ArquivoPDFNome                *string         `json:"arquivo_pdf_nome"`
}

// CertificadoDownload é a resposta de GET /certificados/{id}/download.
type CertificadoDownload struct {
	ArquivoPDFURL     *string `json:"arquivo_pdf_url"`
	ArquivoPDFNome    *string `json:"arquivo_pdf_nome"`
	HashValidacao     string  `json:"hash_validacao"`
	CodigoVerificacao string  `json:"codigo_verificacao"`
}

type certificadoRecord struct {
	certificado Certificado
	validacao   CertificadoValidacao
	pdfKey      string
}

type DashboardMetrics struct {
	OficinasAtivas       int     `json:"oficinas_ativas"`
	OficinasPlanejadas   int     `json:"oficinas_planejadas"`
	OficinasConcluidas   int     `json:"oficinas_concluidas"`
	TotalInscricoes      int     `json:"total_inscricoes"`
	InscritosConcluidos  int     `json:"inscritos_concluidos"`
	CertificadosEmitidos int     `json:"certificados_emitidos"`
	PresencaMediaGeral   float64 `json:"presenca_media_geral"`
	UltimaAtualizacao    string  `json:"ultima_atualizacao"`
}
