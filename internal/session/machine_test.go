package session

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-interview-api/internal/models"
)

func newTestMachine(t *testing.T) *Machine {
	t.Helper()

	counter := 0
	clock := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return NewMachine(
		WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}),
		WithIDGenerator(func() string {
			counter++
			return fmt.Sprintf("id-%d", counter)
		}),
	)
}

func completeCandidate() models.CandidateInfo {
	return models.CandidateInfo{Name: "A", Email: "a@b.com", Phone: "123"}
}

func testQuestions(limits ...int) []models.Question {
	questions := make([]models.Question, len(limits))
	for i, limit := range limits {
		questions[i] = models.Question{
			ID:         fmt.Sprintf("%d", i+1),
			Text:       fmt.Sprintf("Question %d", i+1),
			Difficulty: models.DifficultyMedium,
			TimeLimit:  limit,
		}
	}
	return questions
}

func startedMachine(t *testing.T, limits ...int) *Machine {
	t.Helper()

	m := newTestMachine(t)
	m.SetCandidate(completeCandidate())
	require.NoError(t, m.SetQuestions(testQuestions(limits...)))
	require.NoError(t, m.Start())
	return m
}

func TestSetCandidateDrivesInfoPhases(t *testing.T) {
	m := newTestMachine(t)
	require.Equal(t, models.PhaseIdle, m.Phase())

	require.Equal(t, models.PhaseGatheringInfo, m.SetCandidate(models.CandidateInfo{Name: "A", Email: "a@b.com"}))
	require.Equal(t, models.PhaseReady, m.SetCandidate(completeCandidate()))
	require.Equal(t, models.PhaseGatheringInfo, m.SetCandidate(models.CandidateInfo{Name: "A", Email: " ", Phone: "1"}))
}

func TestStartRejectsIncompleteCandidate(t *testing.T) {
	cases := []models.CandidateInfo{
		{Email: "a@b.com", Phone: "123"},
		{Name: "A", Phone: "123"},
		{Name: "A", Email: "a@b.com"},
	}

	for _, info := range cases {
		m := newTestMachine(t)
		require.NoError(t, m.SetQuestions(testQuestions(30)))
		m.SetCandidate(info)

		err := m.Start()
		require.ErrorIs(t, err, ErrCandidateIncomplete)
		require.Equal(t, models.PhaseGatheringInfo, m.Phase())
		require.Empty(t, m.Snapshot().SessionID)
	}

	idle := newTestMachine(t)
	require.ErrorIs(t, idle.Start(), ErrCandidateIncomplete)
	require.Equal(t, models.PhaseIdle, idle.Phase())
}

func TestStartRejectsEmptyQuestionList(t *testing.T) {
	m := newTestMachine(t)
	m.SetCandidate(completeCandidate())

	require.ErrorIs(t, m.Start(), ErrNoQuestions)
	require.Equal(t, models.PhaseReady, m.Phase())
}

func TestStartActivatesFirstQuestion(t *testing.T) {
	m := startedMachine(t, 45, 30)

	state := m.Snapshot()
	require.Equal(t, models.PhaseActive, state.Phase)
	require.Equal(t, 0, state.CurrentQuestionIndex)
	require.Equal(t, 45, state.TimeRemaining)
	require.NotEmpty(t, state.SessionID)
	require.NotNil(t, state.StartedAt)

	require.ErrorIs(t, m.Start(), ErrAlreadyStarted)
}

func TestSubmitAnswerOnlyOnCurrentQuestion(t *testing.T) {
	m := startedMachine(t, 30, 30)

	require.ErrorIs(t, m.SubmitAnswer(1, "too early"), ErrNotCurrentQuestion)
	require.ErrorIs(t, m.SubmitAnswer(0, "   "), ErrBlankAnswer)
	require.NoError(t, m.SubmitAnswer(0, "an answer"))
	require.ErrorIs(t, m.SubmitAnswer(0, "another answer"), ErrAlreadyAnswered)
	require.Equal(t, "an answer", m.Snapshot().Questions[0].Answer)
}

func TestCheckAnswerLeavesStateUntouched(t *testing.T) {
	m := startedMachine(t, 30, 30)

	require.NoError(t, m.CheckAnswer(0, "an answer"))
	require.False(t, m.Snapshot().Questions[0].Answered())
	require.ErrorIs(t, m.CheckAnswer(1, "an answer"), ErrNotCurrentQuestion)
	require.ErrorIs(t, m.CheckAnswer(0, "\t\n"), ErrBlankAnswer)

	require.NoError(t, m.SubmitAnswer(0, "an answer"))
	require.ErrorIs(t, m.CheckAnswer(0, "again"), ErrAlreadyAnswered)
}

func TestSubmitAnswerRequiresActivePhase(t *testing.T) {
	m := newTestMachine(t)
	m.SetCandidate(completeCandidate())
	require.NoError(t, m.SetQuestions(testQuestions(30)))

	require.ErrorIs(t, m.SubmitAnswer(0, "answer"), ErrNotActive)
	require.Empty(t, m.Snapshot().Questions[0].Answer)
}

func TestRecordScoreValidatesInput(t *testing.T) {
	m := startedMachine(t, 30, 30)

	require.ErrorIs(t, m.RecordScore(0, 5, "ok"), ErrNotAnswered)
	require.NoError(t, m.SubmitAnswer(0, "answer"))

	require.ErrorIs(t, m.RecordScore(7, 5, "ok"), ErrQuestionOutOfRange)
	require.ErrorIs(t, m.RecordScore(-1, 5, "ok"), ErrQuestionOutOfRange)
	require.ErrorIs(t, m.RecordScore(0, 11, "ok"), ErrInvalidScore)
	require.ErrorIs(t, m.RecordScore(0, -1, "ok"), ErrInvalidScore)
	require.Nil(t, m.Snapshot().Questions[0].Score)

	require.NoError(t, m.RecordScore(0, 5, "ok"))
	require.NoError(t, m.RecordScore(0, 6, "corrected"))

	q := m.Snapshot().Questions[0]
	require.Equal(t, 6, *q.Score)
	require.Equal(t, "corrected", q.Evaluation)
}

func TestAdvanceResetsTimerToNextLimit(t *testing.T) {
	m := startedMachine(t, 30, 90)

	m.Tick()
	m.Tick()
	require.Equal(t, 28, m.Snapshot().TimeRemaining)

	result, err := m.Advance()
	require.NoError(t, err)
	require.False(t, result.Completed)
	require.Nil(t, result.Record)

	state := m.Snapshot()
	require.Equal(t, 1, state.CurrentQuestionIndex)
	require.Equal(t, 90, state.TimeRemaining)
	require.Equal(t, models.PhaseActive, state.Phase)
}

func TestAdvanceFromLastQuestionCompletesOnce(t *testing.T) {
	m := startedMachine(t, 30, 30, 30)

	scores := []int{4, 0, 9}
	var records []*models.SessionRecord
	for i, score := range scores {
		require.NoError(t, m.SubmitAnswer(i, "answer"))
		if score > 0 {
			require.NoError(t, m.RecordScore(i, score, "evaluated"))
		}
		result, err := m.Advance()
		require.NoError(t, err)
		if result.Record != nil {
			records = append(records, result.Record)
		}
	}

	require.Len(t, records, 1)
	state := m.Snapshot()
	require.Equal(t, models.PhaseComplete, state.Phase)
	require.Equal(t, 0, state.TimeRemaining)
	require.Equal(t, 13, state.TotalScore, "missing score counts as zero")
	require.NotNil(t, state.CompletedAt)

	record := records[0]
	require.Equal(t, 13, record.TotalScore)
	require.Equal(t, 30, record.MaxScore)
	require.Equal(t, state.SessionID, record.SessionID)
	require.NotEqual(t, record.SessionID, record.ID)
	require.Equal(t, "A", record.CandidateName)
	require.Len(t, record.Questions, 3)

	_, err := m.Advance()
	require.ErrorIs(t, err, ErrSessionComplete)
	require.ErrorIs(t, m.SubmitAnswer(2, "late"), ErrSessionComplete)
	require.ErrorIs(t, m.Start(), ErrSessionComplete)
	require.Equal(t, models.PhaseComplete, m.Phase())
}

func TestTotalScoreMatchesSumOfRecordedScores(t *testing.T) {
	for n := 1; n <= 6; n++ {
		limits := make([]int, n)
		for i := range limits {
			limits[i] = 30
		}
		m := startedMachine(t, limits...)

		expected := 0
		var record *models.SessionRecord
		for i := 0; i < n; i++ {
			score := (i * 3) % 11
			expected += score
			require.NoError(t, m.SubmitAnswer(i, "answer"))
			require.NoError(t, m.RecordScore(i, score, "ok"))
			result, err := m.Advance()
			require.NoError(t, err)
			record = result.Record
		}

		require.NotNil(t, record)
		require.Equal(t, expected, m.Snapshot().TotalScore)
		require.Equal(t, expected, record.TotalScore)
	}
}

func TestAdvanceRequiresActivePhase(t *testing.T) {
	m := newTestMachine(t)

	_, err := m.Advance()
	require.ErrorIs(t, err, ErrNotActive)
}

func TestTickFloorsAtZeroAndNeverForcesAdvance(t *testing.T) {
	m := startedMachine(t, 3, 30)

	for i := 0; i < 10; i++ {
		m.Tick()
	}

	state := m.Snapshot()
	require.Equal(t, 0, state.TimeRemaining)
	require.Equal(t, models.PhaseActive, state.Phase)
	require.Equal(t, 0, state.CurrentQuestionIndex)
	require.False(t, m.Tick())

	require.NoError(t, m.SubmitAnswer(0, "still accepted after the limit"))
}

func TestTickIsNoOpOutsideActivePhase(t *testing.T) {
	m := newTestMachine(t)
	require.False(t, m.Tick())
	require.Equal(t, 0, m.Snapshot().TimeRemaining)

	m = startedMachine(t, 30)
	require.NoError(t, m.SubmitAnswer(0, "answer"))
	_, err := m.Advance()
	require.NoError(t, err)

	require.False(t, m.Tick())
	require.Equal(t, 0, m.Snapshot().TimeRemaining)
}

func TestSetQuestionsRejectedWhileActive(t *testing.T) {
	m := startedMachine(t, 30, 30)

	require.ErrorIs(t, m.SetQuestions(testQuestions(10)), ErrInterviewInProgress)
	require.Len(t, m.Snapshot().Questions, 2)
}

func TestSetQuestionsCopiesInput(t *testing.T) {
	m := newTestMachine(t)
	questions := testQuestions(30)
	require.NoError(t, m.SetQuestions(questions))

	questions[0].Text = "mutated"
	require.Equal(t, "Question 1", m.Snapshot().Questions[0].Text)
}

func TestSetCandidateDuringInterviewIsLateCorrection(t *testing.T) {
	m := startedMachine(t, 30)

	phase := m.SetCandidate(models.CandidateInfo{Name: "A B", Email: "a@b.com", Phone: "123"})
	require.Equal(t, models.PhaseActive, phase)
	require.Equal(t, "A B", m.Snapshot().Candidate.Name)
}

func TestAppendChatMessageAssignsUniqueIDs(t *testing.T) {
	m := NewMachine()

	seen := map[string]struct{}{}
	for i := 0; i < 50; i++ {
		message := m.AppendChatMessage(models.ChatRoleAssistant, "hello")
		_, duplicate := seen[message.ID]
		require.False(t, duplicate)
		seen[message.ID] = struct{}{}
		require.False(t, message.Timestamp.IsZero())
	}
	require.Len(t, m.Snapshot().ChatHistory, 50)
}

func TestArchivedRecordIsIndependentOfLiveSession(t *testing.T) {
	m := startedMachine(t, 30)
	m.AppendChatMessage(models.ChatRoleAssistant, "Interview started! Good luck!")
	require.NoError(t, m.SubmitAnswer(0, "original answer"))
	require.NoError(t, m.RecordScore(0, 4, "fine"))

	result, err := m.Advance()
	require.NoError(t, err)
	record := result.Record

	m.AppendChatMessage(models.ChatRoleAssistant, "after completion")
	m.Restore(func() models.SessionState {
		state := m.Snapshot()
		state.Questions[0].Answer = "rewritten"
		*state.Questions[0].Score = 0
		return state
	}())
	m.Reset()

	require.Len(t, record.ChatHistory, 1)
	require.Equal(t, "Interview started! Good luck!", record.ChatHistory[0].Text)
	require.Equal(t, "original answer", record.Questions[0].Answer)
	require.Equal(t, 4, *record.Questions[0].Score)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	m := startedMachine(t, 30)
	require.NoError(t, m.SubmitAnswer(0, "answer"))
	require.NoError(t, m.RecordScore(0, 4, "fine"))

	snapshot := m.Snapshot()
	*snapshot.Questions[0].Score = 10
	snapshot.Candidate.Name = "changed"

	state := m.Snapshot()
	require.Equal(t, 4, *state.Questions[0].Score)
	require.Equal(t, "A", state.Candidate.Name)
}

func TestResetReturnsToInitialState(t *testing.T) {
	m := startedMachine(t, 30)
	m.AppendChatMessage(models.ChatRoleCandidate, "hi")
	require.NoError(t, m.SubmitAnswer(0, "answer"))
	_, err := m.Advance()
	require.NoError(t, err)

	m.Reset()

	state := m.Snapshot()
	require.Equal(t, models.PhaseIdle, state.Phase)
	require.Nil(t, state.Candidate)
	require.Empty(t, state.Questions)
	require.Empty(t, state.ChatHistory)
	require.Empty(t, state.SessionID)
	require.Zero(t, state.TotalScore)
	require.Zero(t, state.TimeRemaining)
}

func TestRestoreOverwritesVerbatim(t *testing.T) {
	m := newTestMachine(t)

	candidate := completeCandidate()
	restored := models.SessionState{
		Candidate:            &candidate,
		Questions:            testQuestions(30, 30),
		CurrentQuestionIndex: 1,
		Phase:                models.PhaseActive,
		TimeRemaining:        12,
		SessionID:            "restored-session",
		ChatHistory:          []models.ChatMessage{{ID: "m1", Role: models.ChatRoleAssistant, Text: "hello"}},
	}
	m.Restore(restored)

	state := m.Snapshot()
	require.Equal(t, models.PhaseActive, state.Phase)
	require.Equal(t, 1, state.CurrentQuestionIndex)
	require.Equal(t, 12, state.TimeRemaining)
	require.Equal(t, "restored-session", state.SessionID)

	require.True(t, m.Tick())
	require.Equal(t, 11, m.Snapshot().TimeRemaining)
	require.Equal(t, 12, restored.TimeRemaining)
}

func TestRestoredActiveSessionWithoutQuestionsRejectsAnswers(t *testing.T) {
	m := newTestMachine(t)
	candidate := completeCandidate()
	m.Restore(models.SessionState{
		Candidate: &candidate,
		Questions: []models.Question{},
		Phase:     models.PhaseActive,
		SessionID: "empty-session",
	})

	require.NotPanics(t, func() {
		require.ErrorIs(t, m.CheckAnswer(0, "hello world"), ErrQuestionOutOfRange)
		require.ErrorIs(t, m.SubmitAnswer(0, "hello world"), ErrQuestionOutOfRange)
		_, err := m.Advance()
		require.ErrorIs(t, err, ErrNoQuestions)
	})
	require.Equal(t, models.PhaseActive, m.Phase())
}

func TestRestoredActiveSessionPastLastQuestionRejectsAnswers(t *testing.T) {
	m := newTestMachine(t)
	candidate := completeCandidate()
	m.Restore(models.SessionState{
		Candidate:            &candidate,
		Questions:            testQuestions(30),
		CurrentQuestionIndex: 3,
		Phase:                models.PhaseActive,
		SessionID:            "overrun-session",
	})

	require.NotPanics(t, func() {
		require.ErrorIs(t, m.CheckAnswer(3, "hello world"), ErrQuestionOutOfRange)
		require.ErrorIs(t, m.SubmitAnswer(3, "hello world"), ErrQuestionOutOfRange)
		_, err := m.Advance()
		require.ErrorIs(t, err, ErrQuestionOutOfRange)
	})
	require.Empty(t, m.Snapshot().Questions[0].Answer)
}

func TestIsPreconditionClassifiesErrors(t *testing.T) {
	require.True(t, IsPrecondition(ErrCandidateIncomplete))
	require.True(t, IsPrecondition(fmt.Errorf("wrapped: %w", ErrNotCurrentQuestion)))
	require.False(t, IsPrecondition(ErrEmptyQuestionBank))
	require.False(t, IsPrecondition(fmt.Errorf("boom")))
}

func TestLoadQuestionsReturnsFixedBank(t *testing.T) {
	questions, err := LoadQuestions(DefaultRole)
	require.NoError(t, err)
	require.Len(t, questions, 6)

	counts := map[models.Difficulty]int{}
	for _, q := range questions {
		counts[q.Difficulty]++
		require.Equal(t, 30, q.TimeLimit)
		require.Nil(t, q.Score)
		require.Empty(t, q.Answer)
	}
	require.Equal(t, map[models.Difficulty]int{
		models.DifficultyEasy:   2,
		models.DifficultyMedium: 2,
		models.DifficultyHard:   2,
	}, counts)
	require.True(t, strings.HasPrefix(questions[0].Text, "What is React"))

	other, err := LoadQuestions("Data Engineer")
	require.NoError(t, err)
	require.Equal(t, questions, other)

	other[0].Text = "mutated"
	again, err := LoadQuestions("")
	require.NoError(t, err)
	require.Equal(t, questions[0].Text, again[0].Text)
}

func TestParseQuestionsRejectsEmptyBank(t *testing.T) {
	_, err := parseQuestions([]byte("questions: []\n"))
	require.ErrorIs(t, err, ErrEmptyQuestionBank)

	_, err = parseQuestions([]byte("questions:\n  - id: x\n    text: hi\n    difficulty: extreme\n    time_limit: 5\n"))
	require.Error(t, err)
}
