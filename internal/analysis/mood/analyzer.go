package mood

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/lumi-hq/lumi-inbox/backend/internal/model/inbox"
)

// Label 表示客户最近消息中体现的情绪。
type Label string

const (
	Neutral    Label = "neutral"
	Frustrated Label = "frustrated"
	Anxious    Label = "anxious"
	Urgent     Label = "urgent"
	Satisfied  Label = "satisfied"
)

// Decision 给出情绪识别结果。
type Decision struct {
	Label Label `json:"label"`
	Score int   `json:"score"`
}

// window 是参与打分的最近客户消息条数。
const window = 3

var keywordBuckets = map[Label][]string{
	Frustrated: {
		"absurdo", "ridículo", "péssimo", "pessimo", "horrível", "descaso", "reclamação", "reclamar",
		"procon", "cancelar", "cancelamento", "não funciona", "nao funciona", "de novo", "ninguém responde",
		"palhaçada", "vergonha", "insatisfeito", "processo",
	},
	Anxious: {
		"preocupado", "preocupada", "será que", "não sei", "nao sei", "dúvida", "duvida", "medo",
		"ainda não", "cadê", "cade", "alguém", "alguem",
	},
	Urgent: {
		"urgente", "urgência", "agora", "hoje", "rápido", "rapido", "imediato", "já", "o quanto antes",
		"sem internet", "sem sinal", "parado",
	},
	Satisfied: {
		"obrigado", "obrigada", "valeu", "perfeito", "ótimo", "otimo", "excelente", "maravilha",
		"show", "top", "resolvido", "gostei",
	},
}

var punctuationBoost = map[Label]int{
	Frustrated: 1,
	Urgent:     1,
}

// Analyze 根据最近几条客户消息推断情绪，越新的消息权重越高。
func Analyze(messages []inbox.Message) Decision {
	scores := make(map[Label]int)
	weight := window
	for i := len(messages) - 1; i >= 0 && weight > 0; i-- {
		if messages[i].Role != inbox.RoleClient {
			continue
		}
		for label, s := range scoreText(messages[i].Text) {
			scores[label] += s * weight
		}
		weight--
	}

	best := Decision{Label: Neutral}
	// 固定顺序保证同分时结果稳定。
	for _, label := range []Label{Frustrated, Urgent, Anxious, Satisfied} {
		if scores[label] > best.Score {
			best = Decision{Label: label, Score: scores[label]}
		}
	}
	return best
}

func scoreText(text string) map[Label]int {
	normalized := cases.Fold().String(strings.TrimSpace(text))
	scores := make(map[Label]int)
	if normalized == "" {
		return scores
	}

	for label, keywords := range keywordBuckets {
		for _, word := range keywords {
			if strings.Contains(normalized, cases.Fold().String(word)) {
				scores[label] += 3
			}
		}
	}

	if exclamations := strings.Count(text, "!"); exclamations > 1 {
		for label, boost := range punctuationBoost {
			if scores[label] > 0 {
				scores[label] += exclamations * boost
			}
		}
	}
	if strings.Count(text, "?") > 1 {
		scores[Anxious] += 2
	}
	return scores
}

// Guidance 返回给回复建议提示词的语气指引，中性时为空。
func (d Decision) Guidance() string {
	switch d.Label {
	case Frustrated:
		return "O cliente parece irritado. Reconheça o problema, peça desculpas sem discutir e proponha uma solução concreta."
	case Anxious:
		return "O cliente parece inseguro. Responda com calma, explique o próximo passo e confirme que está acompanhando o caso."
	case Urgent:
		return "O cliente tem pressa. Seja direto e informe prazos objetivos."
	case Satisfied:
		return "O cliente está satisfeito. Agradeça e pergunte se pode ajudar em algo mais."
	default:
		return ""
	}
}
