package mockapi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ellp/mockapi/internal/auth"
	"github.com/ellp/mockapi/internal/storage"
	"github.com/ellp/mockapi/internal/util"
)

type seedUser struct {
	email string
	senha string
	role  Role
	nome  string
}

var seedUsers = []seedUser{
	{email: "admin@ellp.test", senha: "admin12345", role: RoleAdmin, nome: "Administrador Geral"},
	{email: "prof@ellp.test", senha: "prof12345", role: RoleProfessor, nome: "Prof. Helena Souza"},
	{email: "tutor@ellp.test", senha: "tutor12345", role: RoleTutor, nome: "Tutor Rafael Lima"},
	{email: "aluno@ellp.test", senha: "aluno12345", role: RoleAluno, nome: "Ana Clara"},
}

// Os hashes são calculados uma vez por processo e reaproveitados nos resets.
var (
	seedHashOnce sync.Once
	seedHashes   map[string]string
	seedHashErr  error
)

func seedPasswordHashes() (map[string]string, error) {
	seedHashOnce.Do(func() {
		hashes := make(map[string]string, len(seedUsers))
		for _, u := range seedUsers {
			h, err := auth.Hash(u.senha)
			if err != nil {
				seedHashErr = fmt.Errorf("hash seed %s: %w", u.email, err)
				return
			}
			hashes[u.email] = h
		}
		seedHashes = hashes
	})
	return seedHashes, seedHashErr
}

// state agrega todas as coleções do mock.
type state struct {
	dashboard    DashboardMetrics
	temas        []Tema
	users        []usuarioRecord
	oficinas     []Oficina
	certificados []certificadoRecord
}

func buildState(ctx context.Context, now time.Time, pdfBase storage.Locator) (*state, error) {
	users, err := buildUsers(now)
	if err != nil {
		return nil, err
	}
	temas := buildTemas()
	oficinas := buildOficinas(now, temas, users)
	certificados, err := buildCertificados(ctx, now, oficinas, users, pdfBase)
	if err != nil {
		return nil, err
	}
	return &state{
		dashboard:    buildDashboard(now),
		temas:        temas,
		users:        users,
		oficinas:     oficinas,
		certificados: certificados,
	}, nil
}

func buildDashboard(now time.Time) DashboardMetrics {
	return DashboardMetrics{
		OficinasAtivas:       3,
		OficinasPlanejadas:   1,
		OficinasConcluidas:   2,
		TotalInscricoes:      86,
		InscritosConcluidos:  42,
		CertificadosEmitidos: 58,
		PresencaMediaGeral:   87.5,
		UltimaAtualizacao:    util.ISO(now),
	}
}

func buildTemas() []Tema {
	return []Tema{
		{ID: util.NewID(), Nome: "Robótica com LEGO", Descricao: strPtr("Montagem e lógica com kits LEGO Education"), Ativo: true},
		{ID: util.NewID(), Nome: "Scratch Básico", Descricao: strPtr("Algoritmos com blocos para crianças"), Ativo: true},
		{ID: util.NewID(), Nome: "Arduino Lúdico", Descricao: strPtr("Circuitos simples para oficinas itinerantes"), Ativo: true},
	}
}

func buildUsers(now time.Time) ([]usuarioRecord, error) {
	hashes, err := seedPasswordHashes()
	if err != nil {
		return nil, err
	}

	users := make([]usuarioRecord, 0, len(seedUsers))
	for _, u := range seedUsers {
		users = append(users, usuarioRecord{
			Usuario: Usuario{
				ID:           util.NewID(),
				Email:        u.email,
				Role:         u.role,
				NomeCompleto: u.nome,
				Ativo:        true,
				UltimoLogin:  strPtr(util.ISO(now)),
			},
			senhaHash: hashes[u.email],
		})
	}
	return users, nil
}

func buildOficinas(now time.Time, temas []Tema, users []usuarioRecord) []Oficina {
	professorID := users[0].ID
	for _, u := range users {
		if u.Role == RoleProfessor {
			professorID = u.ID
			break
		}
	}

	base := func() Oficina {
		return Oficina{
			ID:               util.NewID(),
			Titulo:           "Robótica Criativa",
			Descricao:        strPtr("Oficina prática com LEGO"),
			Objetivo:         strPtr("Estimular lógica e colaboração"),
			CargaHoraria:     16,
			CapacidadeMaxima: 20,
			NumeroAulas:      intPtr(4),
			DataInicio:       util.ISO(now),
			DataFim:          util.ISO(now.Add(30 * 24 * time.Hour)),
			DiasSemana:       strPtr("Sábados"),
			Horario:          strPtr("09h às 11h"),
			Local:            "UTFPR Cornélio",
			Status:           StatusEmAndamento,
			ProfessorID:      professorID,
			Temas:            []Tema{temas[0]},
			TotalInscritos:   18,
			VagasDisponiveis: 2,
			TotalConcluintes: 10,
			CreatedAt:        util.ISO(now),
			UpdatedAt:        util.ISO(now),
		}
	}

	robotica := base()

	scratch := base()
	scratch.Titulo = "Primeiros passos no Scratch"
	scratch.Status = StatusInscricoesAbertas
	scratch.Descricao = strPtr("Fluxos animados")
	scratch.TotalInscritos = 12
	scratch.VagasDisponiveis = 8
	scratch.Temas = []Tema{temas[1]}

	arduino := base()
	arduino.Titulo = "Arduino Lúdico para tutores"
	arduino.Status = StatusPlanejada
	arduino.TotalInscritos = 0
	arduino.VagasDisponiveis = 20
	arduino.Temas = []Tema{temas[2]}

	return []Oficina{robotica, scratch, arduino}
}

func buildCertificados(ctx context.Context, now time.Time, oficinas []Oficina, users []usuarioRecord, pdfBase storage.Locator) ([]certificadoRecord, error) {
	oficina := oficinas[0]
	emissao := util.ISO(now)

	alunoID := util.NewID()
	alunoKey := alunoID + ".pdf"
	alunoURL, err := pdfBase.Locate(ctx, alunoKey)
	if err != nil {
		return nil, err
	}
	aluno := newCertificadoRecord(certificadoSeed{
		id:               alunoID,
		tipo:             CertificadoConclusaoAluno,
		inscricaoID:      strPtr(util.NewID()),
		oficina:          oficina,
		codigo:           "ELLPPW-12345",
		pdfKey:           alunoKey,
		pdfURL:           alunoURL,
		pdfNome:          fmt.Sprintf("certificado-%s.pdf", alunoID),
		emissao:          emissao,
		percentual:       floatPtr(92.5),
		participanteNome: "Ana Clara Souza",
		participanteTipo: string(RoleAluno),
	})

	tutor := users[0]
	for _, u := range users {
		if u.Role == RoleTutor {
			tutor = u
			break
		}
	}
	tutorCertID := util.NewID()
	tutorNome := fmt.Sprintf("tutor-%s-%s.pdf", tutor.ID, oficina.ID)
	tutorKey := "tutores/" + tutorNome
	tutorURL, err := pdfBase.Locate(ctx, tutorKey)
	if err != nil {
		return nil, err
	}
	tutorCert := newCertificadoRecord(certificadoSeed{
		id:               tutorCertID,
		tipo:             CertificadoParticipacaoTutor,
		tutorID:          strPtr(tutor.ID),
		oficina:          oficina,
		codigo:           "ELLPTU-67890",
		pdfKey:           tutorKey,
		pdfURL:           tutorURL,
		pdfNome:          tutorNome,
		emissao:          emissao,
		participanteNome: tutor.NomeCompleto,
		participanteTipo: string(RoleTutor),
		revogado:         true,
		motivoRevogacao:  strPtr("Emitido em duplicidade"),
	})

	return []certificadoRecord{aluno, tutorCert}, nil
}

type certificadoSeed struct {
	id               string
	tipo             CertificadoTipo
	inscricaoID      *string
	tutorID          *string
	oficina          Oficina
	codigo           string
	pdfKey           string
	pdfURL           string
	pdfNome          string
	emissao          string
	percentual       *float64
	participanteNome string
	participanteTipo string
	revogado         bool
	motivoRevogacao  *string
}

// newCertificadoRecord deriva a visão de validação do certificado;
// valido é fixado aqui e não acompanha revogações posteriores.
func newCertificadoRecord(s certificadoSeed) certificadoRecord {
	hash := "ellp-hash-" + s.id[:8]
	carga := intPtr(s.oficina.CargaHoraria)

	cert := Certificado{
		ID:                            s.id,
		Tipo:                          s.tipo,
		InscricaoID:                   s.inscricaoID,
		TutorID:                       s.tutorID,
		OficinaID:                     s.oficina.ID,
		HashValidacao:                 hash,
		CodigoVerificacao:             s.codigo,
		ArquivoPDFURL:                 strPtr(s.pdfURL),
		ArquivoPDFNome:                strPtr(s.pdfNome),
		DataEmissao:                   s.emissao,
		CargaHorariaCertificada:       carga,
		PercentualPresencaCertificado: s.percentual,
		Revogado:                      s.revogado,
	}

	validacao := CertificadoValidacao{
		HashValidacao:                 hash,
		CodigoVerificacao:             s.codigo,
		Tipo:                          s.tipo,
		Valido:                        !s.revogado,
		ParticipanteNome:              s.participanteNome,
		ParticipanteTipo:              s.participanteTipo,
		OficinaID:                     s.oficina.ID,
		OficinaTitulo:                 s.oficina.Titulo,
		DataEmissao:                   s.emissao,
		CargaHorariaCertificada:       carga,
		PercentualPresencaCertificado: s.percentual,
		Revogado:                      s.revogado,
		MotivoRevogacao:               s.motivoRevogacao,
		ArquivoPDFURL:                 strPtr(s.pdfURL),
		ArquivoPDFNome:                strPtr(s.pdfNome),
	}

	return certificadoRecord{certificado: cert, validacao: validacao, pdfKey: s.pdfKey}
}

func strPtr(v string) *string     { return &v }
func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
