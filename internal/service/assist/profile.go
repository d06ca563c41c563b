package assist

import (
	"fmt"
	"strings"
)

// Tone 是智能客服回复的语气。
type Tone string

const (
	ToneProfessional Tone = "profissional"
	ToneFormal       Tone = "formal"
	ToneFriendly     Tone = "amigavel"
	ToneYoung        Tone = "jovem"
)

var toneHints = map[Tone]string{
	ToneProfessional: "Seja claro, objetivo e cordial, sem excesso de formalidade.",
	ToneFormal:       "Use linguagem formal e institucional, tratando o cliente por senhor ou senhora.",
	ToneFriendly:     "Seja caloroso e próximo, com frases curtas e acolhedoras.",
	ToneYoung:        "Use linguagem leve e descontraída, sem gírias ofensivas.",
}

// Profile 描述代表企业回复客户的坐席设定。
type Profile struct {
	Company  string
	Segment  string
	Tone     Tone
	Rules    []string
	CanDo    []string
	CannotDo []string
	Transfer []string
}

// DefaultProfile 返回默认的电信客服设定。
func DefaultProfile() Profile {
	return Profile{
		Segment: "Telecomunicações: telefonia móvel, internet fibra e TV por assinatura",
		Tone:    ToneProfessional,
		Rules: []string{
			"Responder de forma clara, objetiva e profissional.",
			"Evitar gírias e abreviações informais.",
			"Sempre confirmar dados antes de qualquer alteração cadastral.",
			"Priorizar soluções rápidas e práticas.",
			"Manter postura institucional e cordial.",
			"Nunca discutir com o cliente.",
			"Usar linguagem simples e acessível.",
		},
		CanDo: []string{
			"Consultar planos móveis, fibra e TV.",
			"Informar valores e benefícios.",
			"Verificar cobertura por CEP.",
			"Gerar segunda via de boleto.",
			"Abrir protocolo de atendimento.",
			"Agendar visita técnica.",
		},
		CannotDo: []string{
			"Conceder descontos personalizados.",
			"Cancelar contrato sem autenticação.",
			"Negociar dívidas manualmente.",
			"Fornecer dados sensíveis sem confirmação de identidade.",
		},
		Transfer: []string{
			"Cliente solicitar cancelamento definitivo.",
			"Cliente mencionar processo judicial ou PROCON.",
			"Cliente pedir atendente humano explicitamente.",
		},
	}
}

// ParseTone 解析语气，未知值回退为 profissional。
func ParseTone(raw string) Tone {
	tone := Tone(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := toneHints[tone]; ok {
		return tone
	}
	return ToneProfessional
}

// SystemPrompt 生成给模型的系统提示词。
func (p Profile) SystemPrompt(contactName string) string {
	company := strings.TrimSpace(p.Company)
	if company == "" {
		company = "a empresa"
	}
	hint, ok := toneHints[p.Tone]
	if !ok {
		hint = toneHints[ToneProfessional]
	}

	return fmt.Sprintf(`Você é um atendente de %s no WhatsApp.
Segmento: %s

Tom de voz: %s

Regras:
- %s

Você pode:
- %s

Você não pode:
- %s

Transfira para um atendente humano quando:
- %s

Sugira apenas a próxima mensagem a ser enviada para %s, em português, sem explicações.`,
		company,
		p.Segment,
		hint,
		strings.Join(p.Rules, "\n- "),
		strings.Join(p.CanDo, "\n- "),
		strings.Join(p.CannotDo, "\n- "),
		strings.Join(p.Transfer, "\n- "),
		contactName,
	)
}
