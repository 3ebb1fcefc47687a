// internal/service/allocator.go
package service

import (
	"bytes"
	"sort"
	"time"

	"go_5_study_plan/internal/model"
)

// allocation は1科目への時間割り当て1件を表します
type allocation struct {
	Progress *model.SubjectProgress
	Minutes  int
	IsReview bool // 復習パスによる割り当て (進捗カウンタは変更しない)
}

// allocationSink は割り当て1件を永続化する戦略です。
// ドライラン時は nil を渡し、スナップショットの更新だけが行われます。
type allocationSink func(al allocation) error

// planAllocations は進捗スナップショットと時間枠から割り当てを計算する純粋関数です。
// スナップショットは変更しません。保証: sum(Minutes) <= windowMinutes。
//
// 候補の順序: 未着手(completed==0)を先に、次に残り時間の多い順、同値は科目ID昇順。
// タイブレークに進捗行IDは使わない。行が未永続の場合は採番が実行ごとに変わるため、
// ドライランとライブ実行で順序がずれる。科目IDはカタログ由来で安定している。
// 全科目完了済みの場合は復習フォールバック: lastStudyDate昇順(null最優先)で
// 1科目あたり reviewCap 分を上限に割り当てる。
// コースに科目が1つもない場合のみ ErrNoSubjectsAvailable を返す。
func planAllocations(snapshot []*model.SubjectProgress, windowMinutes, reviewCap int) ([]allocation, error) {
	remaining := windowMinutes

	candidates := make([]*model.SubjectProgress, 0, len(snapshot))
	for _, p := range snapshot {
		if !p.IsCompleted {
			candidates = append(candidates, p)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.HasStarted() != b.HasStarted() {
			return !a.HasStarted() // 未着手を先に
		}
		if a.RemainingMinutes != b.RemainingMinutes {
			return a.RemainingMinutes > b.RemainingMinutes
		}
		return bytes.Compare(a.SubjectID[:], b.SubjectID[:]) < 0
	})

	var allocs []allocation
	for _, c := range candidates {
		if remaining <= 0 {
			break
		}
		take := c.RemainingMinutes
		if take > remaining {
			take = remaining
		}
		if take <= 0 {
			continue
		}
		allocs = append(allocs, allocation{Progress: c, Minutes: take})
		remaining -= take
	}

	// 復習フォールバック: 未完了科目への割り当てが1件もなかった場合のみ
	if len(allocs) == 0 && remaining > 0 {
		completed := make([]*model.SubjectProgress, 0, len(snapshot))
		for _, p := range snapshot {
			if p.IsCompleted {
				completed = append(completed, p)
			}
		}
		// 復習日が古い順。未復習(null)を最優先。
		sort.SliceStable(completed, func(i, j int) bool {
			a, b := completed[i], completed[j]
			if (a.LastStudyDate == nil) != (b.LastStudyDate == nil) {
				return a.LastStudyDate == nil
			}
			if a.LastStudyDate != nil && !a.LastStudyDate.Equal(*b.LastStudyDate) {
				return a.LastStudyDate.Before(*b.LastStudyDate)
			}
			return bytes.Compare(a.SubjectID[:], b.SubjectID[:]) < 0
		})
		for _, c := range completed {
			if remaining <= 0 {
				break
			}
			take := reviewCap
			if take > remaining {
				take = remaining
			}
			if take <= 0 {
				break
			}
			allocs = append(allocs, allocation{Progress: c, Minutes: take, IsReview: true})
			remaining -= take
		}
	}

	if len(allocs) == 0 {
		// ここに到達するのはコースに科目が存在しない場合のみ
		return nil, model.ErrNoSubjectsAvailable
	}
	return allocs, nil
}

// simulateSink はスナップショットの更新だけを行う戦略です (ドライラン用)。
// 更新されたスナップショットが次の日付・スロットの入力になることで、
// 複数日ドライランの消費引き継ぎが成立します。
func simulateSink(onDate time.Time) allocationSink {
	return func(al allocation) error {
		if al.IsReview {
			// 復習は lastStudyDate のみ更新し、分カウンタには触れない
			d := onDate
			al.Progress.LastStudyDate = &d
		} else {
			al.Progress.Apply(al.Minutes, onDate)
		}
		return nil
	}
}

// runAllocation は割り当てを計算し、各割り当てを sink に適用します。
// ライブ実行の sink は進捗の反映と永続化を、ドライランの sink は
// スナップショットの更新だけを行います。
func runAllocation(snapshot []*model.SubjectProgress, windowMinutes, reviewCap int, sink allocationSink) ([]allocation, error) {
	allocs, err := planAllocations(snapshot, windowMinutes, reviewCap)
	if err != nil {
		return nil, err
	}
	for _, al := range allocs {
		if err := sink(al); err != nil {
			return nil, err
		}
	}
	return allocs, nil
}
