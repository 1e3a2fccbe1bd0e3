// SPDX-FileCopyrightText: 2026 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package context

// UE NGAP ID value ranges, TS 38.413 9.3.3.1 and 9.3.3.2
const (
	MaxValueOfRanUeNgapID int64 = 4294967295
	MaxValueOfAmfUeNgapID int64 = 1099511627775
)
