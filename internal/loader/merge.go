package loader

import (
	"fmt"

	"fishwell-data-transformer/internal/models"
)

// MergeExperiments 拼接多个独立加载的实验
//
// 要求：各输入的信号列集合一致；(instrument, trial) 对在输入之间
// 互不重复（否则合并后无法区分来源）。输出按 (instrument, trial,
// zeit) 排序。
func MergeExperiments(tables []*models.Table) (*models.Table, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: no experiments to merge", models.ErrConfiguration)
	}

	ref := signalSet(tables[0])
	for _, t := range tables[1:] {
		set := signalSet(t)
		if len(set) != len(ref) {
			return nil, fmt.Errorf("%w: experiments have differing signal columns", models.ErrConfiguration)
		}
		for k := range ref {
			if !set[k] {
				return nil, fmt.Errorf("%w: experiments have differing signal columns", models.ErrConfiguration)
			}
		}
	}

	// (instrument, trial) 必须唯一标识一个输入
	type pair struct{ instrument, trial int }
	seen := make(map[pair]int)
	for ti, t := range tables {
		for i := range t.Rows {
			p := pair{t.Rows[i].Instrument, t.Rows[i].Trial}
			if prev, ok := seen[p]; ok && prev != ti {
				return nil, fmt.Errorf("%w: instrument/trial pair (%d, %d) appears in multiple experiments",
					models.ErrConfiguration, p.instrument, p.trial)
			}
			seen[p] = ti
		}
	}

	out := &models.Table{SignalColumns: append([]string(nil), tables[0].SignalColumns...)}
	for _, t := range tables {
		c := t.Clone()
		out.Rows = append(out.Rows, c.Rows...)
	}
	out.SortByZeit()
	return out, nil
}

func signalSet(t *models.Table) map[string]bool {
	set := make(map[string]bool, len(t.SignalColumns))
	for _, c := range t.SignalColumns {
		set[c] = true
	}
	return set
}
