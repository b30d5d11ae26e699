package mockapi

// Cópias profundas: nada devolvido pelo Directory aponta para o estado interno.

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTema(t Tema) Tema {
	t.Descricao = clonePtr(t.Descricao)
	return t
}

func cloneTemas(in []Tema) []Tema {
	if in == nil {
		return nil
	}
	out := make([]Tema, len(in))
	for i, t := range in {
		out[i] = cloneTema(t)
	}
	return out
}

func cloneOficina(o Oficina) Oficina {
	o.Descricao = clonePtr(o.Descricao)
	o.Objetivo = clonePtr(o.Objetivo)
	o.NumeroAulas = clonePtr(o.NumeroAulas)
	o.DiasSemana = clonePtr(o.DiasSemana)
	o.Horario = clonePtr(o.Horario)
	o.Temas = cloneTemas(o.Temas)
	return o
}

func cloneCertificado(c Certificado) Certificado {
	c.InscricaoID = clonePtr(c.InscricaoID)
	c.TutorID = clonePtr(c.TutorID)
	c.ArquivoPDFURL = clonePtr(c.ArquivoPDFURL)
	c.ArquivoPDFNome = clonePtr(c.ArquivoPDFNome)
	c.CargaHorariaCertificada = clonePtr(c.CargaHorariaCertificada)
	c.PercentualPresencaCertificado = clonePtr(c.PercentualPresencaCertificado)
	return c
}

func cloneValidacao(v CertificadoValidacao) CertificadoValidacao {
	v.CargaHorariaCertificada = clonePtr(v.CargaHorariaCertificada)
	v.PercentualPresencaCertificado = clonePtr(v.PercentualPresencaCertificado)
	v.MotivoRevogacao = clonePtr(v.MotivoRevogacao)
	v.ArquivoPDFURL = clonePtr(v.ArquivoPDFURL)
	v.ArquivoPDFNome = clonePtr(v.ArquivoPDFNome)
	return v
}
