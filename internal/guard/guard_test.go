package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheck_CPFIsBlocked(t *testing.T) {
	bodies := []string{
		"Paciente CPF 123.456.789-00 internado",
		"cpf do paciente: 12345678900",
		"documento 123456789-00 confirmado",
		"123.456.78900 anotado no prontuário",
	}

	for _, body := range bodies {
		v := Check(body)
		assert.Equal(t, LevelBlocked, v.Level, "body: %s", body)
		assert.NotEmpty(t, v.Message, "blocked verdict must carry a reason")
	}
}

func TestCheck_CNSIsBlocked(t *testing.T) {
	bodies := []string{
		"CNS 898001234567890",
		"cartão 898 0012 3456 7890 do paciente",
	}

	for _, body := range bodies {
		v := Check(body)
		assert.Equal(t, LevelBlocked, v.Level, "body: %s", body)
	}
}

func TestCheck_PhoneIsBlocked(t *testing.T) {
	bodies := []string{
		"liga pra ele no (11) 98765-4321",
		"contato: +55 11 98765-4321",
		"telefone 98765 4321",
		"celular do responsável 11987654321",
	}

	for _, body := range bodies {
		v := Check(body)
		assert.Equal(t, LevelBlocked, v.Level, "body: %s", body)
	}
}

func TestCheck_CleanBodies(t *testing.T) {
	bodies := []string{
		"Paciente com IC descompensada, avaliar furosemida",
		"alguém já prescreveu noradrenalina em BIC no plantão?",
		"dose de ataque 300mg, manutenção 100mg 12/12h",
		"vou passar o caso na troca de plantão",
		"escala de plantões 2023-2024 fechada",
		"protocolo atualizado em 2024-2025",
		"meta entre 1000 2000 ml nas próximas horas",
		"",
	}

	for _, body := range bodies {
		v := Check(body)
		assert.Equal(t, LevelClean, v.Level, "body: %s", body)
		assert.Empty(t, v.Message)
	}
}

func TestCheck_EmailIsWarning(t *testing.T) {
	v := Check("manda o laudo pra fulano@hospital.com.br")
	assert.Equal(t, LevelWarning, v.Level)
	assert.NotEmpty(t, v.Message)
}

func TestCheck_FullNameWithDateIsWarning(t *testing.T) {
	v := Check("Maria Souza deu entrada em 12/08 com dispneia")
	assert.Equal(t, LevelWarning, v.Level)

	// A name alone, without a date-like token, stays clean.
	v = Check("discuti o caso com o doutor Carlos Andrade")
	assert.Equal(t, LevelClean, v.Level)

	// A date alone stays clean too.
	v = Check("reavaliar em 12/08 pela manhã")
	assert.Equal(t, LevelClean, v.Level)
}

func TestCheck_BlockedWinsOverWarning(t *testing.T) {
	// Body matches a warning heuristic (name + date) and a hard
	// identifier (CPF); the hard identifier must win.
	v := Check("Maria Souza, admitida 12/08, CPF 123.456.789-00")
	assert.Equal(t, LevelBlocked, v.Level)
}

func TestCheck_Deterministic(t *testing.T) {
	body := "contato do responsável: fulano@hospital.com.br"
	first := Check(body)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Check(body))
	}
}
