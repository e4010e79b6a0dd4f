package app

// Command é o modo de execução do binário.
type Command string

const (
	// CommandServe sobe a API HTTP, o lote agendado e o bot.
	CommandServe Command = "serve"
	// CommandWorker sobe só o lote agendado e o bot.
	CommandWorker Command = "worker"
	// CommandCheck roda um lote e sai.
	CommandCheck Command = "check"
	// CommandMigrate aplica as migrações do banco.
	CommandMigrate Command = "migrate"
)

// ParseCommand lê o subcomando de args. Vazio ou desconhecido vira serve.
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch Command(args[0]) {
	case CommandWorker, CommandCheck, CommandMigrate:
		return Command(args[0])
	default:
		return CommandServe
	}
}
