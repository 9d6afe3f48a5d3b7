package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// AppName is the canonical application name
const AppName = "odontoflow"

// HomeDir returns the gateway's configuration home: ~/.odontoflow
func HomeDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "."+AppName)
}

// Bootstrap ensures the ~/.odontoflow directory exists with all default content.
// Called once at startup. Safe to call multiple times — only creates missing items.
func Bootstrap(logger *zap.Logger) error {
	root := HomeDir()

	dirs := []string{
		root,
		filepath.Join(root, "logs"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	// Default files — only written if they don't already exist (never overwrite user edits)
	defaults := map[string]string{
		filepath.Join(root, "config.yaml"):    defaultConfig,
		filepath.Join(root, "templates.yaml"): defaultTemplates,
	}

	created := 0
	for path, content := range defaults {
		if _, err := os.Stat(path); err == nil {
			continue // Already exists, skip
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			logger.Warn("Failed to write default file", zap.String("path", path), zap.Error(err))
			continue
		}
		created++
	}

	if created > 0 {
		logger.Info("OdontoFlow bootstrap complete",
			zap.String("home", root),
			zap.Int("files_created", created),
		)
	} else {
		logger.Debug("OdontoFlow home directory OK", zap.String("home", root))
	}

	return nil
}

// ──────────────────────────────────────────────────────────────
// Embedded default file contents
// ──────────────────────────────────────────────────────────────

const defaultConfig = `# ═══════════════════════════════════════════════════════════════
# OdontoFlow Gateway Configuration / Configuração do OdontoFlow
# Auto-generated on first launch — feel free to edit
# Gerado automaticamente no primeiro uso — pode editar à vontade
# ═══════════════════════════════════════════════════════════════

# ─── Gateway Server / Servidor HTTP ───────────────────────────
gateway:
  host: 0.0.0.0
  port: 8000
  mode: local                  # local | production

# ─── Database / Banco de dados ────────────────────────────────
# Patient records, interaction history and appointments.
# Cadastro de pacientes, histórico de conversas e agenda.
database:
  type: sqlite                 # sqlite | postgres
  dsn: odontoflow.db           # File path (sqlite) or connection string (postgres)

# ─── Logging / Logs ───────────────────────────────────────────
log:
  level: info                  # debug | info | warn | error
  format: json                 # console | json

# ─── Clinic / Clínica ─────────────────────────────────────────
# Booking grid used for free-slot queries.
# Grade de horários usada na consulta de vagas.
clinic:
  name: OdontoFlow
  timezone: America/Sao_Paulo
  open_hour: 9                 # First slot starts / Primeiro horário
  close_hour: 18               # Last slot ends / Último horário
  slot_minutes: 60

# ─── Reply templates / Modelos de resposta ────────────────────
templates:
  path: ""                     # Empty = ~/.odontoflow/templates.yaml
  hot_reload: true             # Pick up edits without restart / Recarrega ao salvar

# ─── Telegram Bot ─────────────────────────────────────────────
# Leave bot_token empty to disable the Telegram channel.
# bot_token vazio desativa o canal Telegram.
telegram:
  bot_token: ""                # Get from @BotFather / Obtenha com @BotFather
  allow_ids: []                # Allowed chat IDs when dm_policy=allowlist
  dm_policy: open              # open | allowlist | disabled
`

const defaultTemplates = `# ═══════════════════════════════════════════════════════════════
# OdontoFlow reply templates / Modelos de resposta
# "{name}" is replaced with the patient's name (or name_fallback).
# "{name}" é substituído pelo nome do paciente (ou name_fallback).
# With hot_reload on, saved edits apply without restarting.
# Com hot_reload ativo, edições valem sem reiniciar.
# ═══════════════════════════════════════════════════════════════

name_fallback: cliente

prefix:
  new_lead: "Olá! Que bom receber sua mensagem. "
  existing_patient: "Olá, {name}! Bom falar com você de novo. "

replies:
  schedule_appointment:
    new_lead: >-
      Vou te ajudar a marcar sua primeira consulta. Para começar,
      pode me informar seu nome completo?
    existing_patient: >-
      Claro, vamos agendar! Qual o melhor dia e período para você:
      manhã ou tarde?
  cancel_appointment:
    new_lead: >-
      Não encontrei uma consulta registrada neste número. Pode me
      confirmar o telefone usado no agendamento?
    existing_patient: >-
      Sem problemas. Vou confirmar o cancelamento com a recepção e
      te retorno em instantes.
  request_price:
    new_lead: >-
      Os valores variam conforme a avaliação clínica. Que tal marcar
      uma avaliação sem custo para receber um orçamento exato?
    existing_patient: >-
      Posso pedir um orçamento atualizado à recepção. Enquanto isso,
      quer já deixar uma avaliação agendada?
  greeting:
    new_lead: >-
      Como posso te ajudar hoje? Posso agendar uma consulta ou tirar
      dúvidas sobre nossos tratamentos.
    existing_patient: "Como posso te ajudar hoje? Quer marcar um horário?"
  unknown:
    new_lead: >-
      Não entendi muito bem. Você gostaria de agendar uma consulta ou
      saber sobre valores?
    existing_patient: >-
      Desculpe, não entendi. Quer agendar, cancelar uma consulta ou
      saber sobre valores?
`
