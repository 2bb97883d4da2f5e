package portal

// Portal paths, relative to the configured base URL.
const (
	PathRegistration = "/RegistroAula/Index"
	PathSave         = "/RegistroAula/Salvar"
	PathCurriculums  = "/RegistroAula/CarregarCurriculos"
	PathClasses      = "/MinhasTurmas/GridAcesso"

	PathAttendanceEvents = "/Frequencia/GetEventsForMonth"
	PathAttendanceSave   = "/Frequencia/IncluirPresenca"
)

// Login form.
const (
	SelLogin       = "#name"
	SelPassword    = "#senha"
	SelLoginButton = "#botaoEntrar"
)

// Lesson registration list and subject page.
const (
	SelSubjectRows      = "#tabelaDadosTurma tbody tr"
	selSubjectView      = "#tabelaDadosTurma tbody tr:nth-child(%d) .icone-tabela-visualizar"
	SelSubjectNameLabel = `label[for="NomeDisciplina"]`
	SelSubjectName      = `label[for="NomeDisciplina"] + div`

	SelBimestre        = "#bimestres"
	selBimestreOption  = `#bimestres option[value="%s"]`
	selBimestreApplied = `#hdfFiltroBimestre[value="%s"]`

	SelSkillPageSize = `select[name="tblHabilidadeFundamento_length"]`
	SelSkillTable    = "#tblHabilidadeFundamento"
	SelSkillCodes    = "#tblHabilidadeFundamento tbody tr td:nth-child(2)"
	SelSkillFilter   = `#tblHabilidadeFundamento_filter input[type="search"]`
	SelSkillFirstBox = "#tblHabilidadeFundamento tbody tr:nth-child(1) td:nth-child(1) input"
	SelSkillFirstRow = "#tblHabilidadeFundamento tbody tr:nth-child(1) td:nth-child(2)"

	SelRegistrationPicker = ".datepicker"
	SelTimeSlotList       = "#dvMultiSelect ul"
	SelTimeSlot           = "#chHorario"
	SelSummary            = "#txtBreveResumo"
	SelSaveButton         = "#btnSalvarCadastro"
	SelCSRFToken          = `input[name="__RequestVerificationToken"]`

	SelDisciplineCode = "#hdfCodigoDisciplina"
	SelClassCode      = "#hdfCodigoTurma"
	SelLessonCode     = "#hdfCodigoAula"
)

// Date picker navigation.
const (
	SelPickerPrev = `a[title="Anterior"]`
	SelPickerNext = `a[title="Próximo"]`
)

// Classes and students.
const (
	SelClassTable    = "#tabelaDados"
	SelClassRows     = "#tabelaDados tbody tr"
	selClassStudents = "#tabelaDados tbody tr:nth-child(%d) .icone-tabela-alunos"
	SelStudentTable  = "#tbAlunos"
	SelStudentSize   = `select[name="tbAlunos_length"]`
)

// Attendance.
const (
	selAttendanceSubject = "#tabelaInfoProfessorResp tbody tr:nth-child(%d) #btnAlunos"
	SelAttendancePicker  = "#ui-datepicker-div"
	SelAttendanceDate    = "#frequencias_DataDaAula"
	selAttendanceDay     = `td[title="%s"] a`
	SelListStudents      = "#btnListarAlunos"
	SelStudentRows       = "#frequencias_wrapper tbody tr"
	selStudentPresence   = "#frequencias_wrapper tbody tr:nth-child(%d) #divPresenca"
	SelSaveAttendance    = ".rodape-botao input"
	SelConfirmButton     = ".msg-mensagem-botao button"
)
