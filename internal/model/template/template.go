package template

import "strings"

// Template is a canned reply agents insert into the composer.
type Template struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	Text  string `json:"text" yaml:"text"`
}

// Compose inserts the template into an existing draft. A non-empty draft
// keeps its text and gets the template after a blank line.
func Compose(draft string, t Template) string {
	if strings.TrimSpace(draft) == "" {
		return t.Text
	}
	return draft + "\n\n" + t.Text
}

// Seed provides the default quick replies.
func Seed() []Template {
	return []Template{
		{ID: "t1", Title: "Saudação", Text: "Olá! 😊 Posso te ajudar com o que você precisa hoje?"},
		{ID: "t2", Title: "Confirmar dados", Text: "Perfeito. Você pode confirmar seu nome e a melhor forma de contato?"},
		{ID: "t3", Title: "Orçamento", Text: "Posso te enviar um orçamento rápido. Qual opção/serviço você busca?"},
		{ID: "t4", Title: "Agendamento", Text: "Vamos agendar. Qual dia e horário você prefere?"},
		{ID: "t5", Title: "Retorno", Text: "Vou verificar aqui e já te retorno em alguns minutos, combinado?"},
		{ID: "t6", Title: "Encerramento", Text: "Consegui te ajudar? Se precisar de algo, fico à disposição."},
	}
}
